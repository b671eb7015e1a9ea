package pipeline

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"hdrtoc/internal/config"
	"hdrtoc/internal/extractor"
	"hdrtoc/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const libHeader = `#ifndef LIB_H
#define LIB_H

/*
 * ===============================================================
 *
 *                            ALPHA
 *
 * ===============================================================
 */

/** Alpha. */
int alpha;
#endif
`

func testConfig(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lib.h")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := config.Default()
	cfg.Target = path
	cfg.Header = "/* H */\n\n"
	cfg.Docs = "/** D */\n\n"
	return cfg
}

func readTarget(t *testing.T, cfg *config.Config) string {
	t.Helper()
	b, err := os.ReadFile(cfg.Target)
	require.NoError(t, err)
	return string(b)
}

func run(t *testing.T, cfg *config.Config) *Result {
	t.Helper()
	s, err := NewSynchronizer(cfg, zap.NewNop())
	require.NoError(t, err)
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestSynchronizer_RunWritesPreamble(t *testing.T) {
	cfg := testConfig(t, "/* stale */\n\n"+libHeader)

	res := run(t, cfg)
	assert.True(t, res.Written)
	assert.Equal(t, []string{"ALPHA"}, res.Index.Names())

	want := "/* H */\n\n" +
		"/*\n" +
		" *       TABLE OF CONTENTS\n" +
		" *\n" +
		" * 1. ALPHA\n" +
		" * - Declarations:\tline 14\n" +
		" */\n\n" +
		"/** D */\n\n" +
		libHeader
	assert.Equal(t, want, readTarget(t, cfg))
}

func TestSynchronizer_OffsetsFollowInputUntilRerun(t *testing.T) {
	cfg := testConfig(t, libHeader)

	first := run(t, cfg)
	assert.True(t, first.Written)
	assert.Contains(t, readTarget(t, cfg), "line 12\n")

	// The new preamble shifted the body by 11 lines.
	second := run(t, cfg)
	assert.True(t, second.Written)
	assert.Contains(t, readTarget(t, cfg), "line 23\n")

	third := run(t, cfg)
	assert.False(t, third.Written)
	assert.False(t, third.Changed())
}

func TestSynchronizer_SettleIsIdempotent(t *testing.T) {
	cfg := testConfig(t, libHeader)
	cfg.Settle = true

	first := run(t, cfg)
	assert.True(t, first.Written)
	assert.Equal(t, 2, first.Passes)
	out := readTarget(t, cfg)
	assert.Contains(t, out, "line 23\n")

	// Line 23 of the written file is the section's first content line.
	lines := extractor.SplitLines(out)
	assert.Equal(t, "/** Alpha. */", lines[22])

	second := run(t, cfg)
	assert.False(t, second.Written)
	assert.Equal(t, 1, second.Passes)
	assert.Equal(t, out, readTarget(t, cfg))
}

func TestSynchronizer_NoMarkers(t *testing.T) {
	body := "#ifndef EMPTY_H\n#define EMPTY_H\n#endif\n"
	cfg := testConfig(t, "// old banner\n"+body)

	res := run(t, cfg)
	assert.Equal(t, 0, res.Index.Len())
	assert.Equal(t, "/* H */\n\n/*\n *       TABLE OF CONTENTS\n */\n\n/** D */\n\n"+body, readTarget(t, cfg))
}

func TestSynchronizer_PlanDoesNotWrite(t *testing.T) {
	cfg := testConfig(t, libHeader)
	s, err := NewSynchronizer(cfg, nil)
	require.NoError(t, err)

	res, err := s.Plan(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Changed())
	assert.False(t, res.Written)
	assert.Equal(t, libHeader, readTarget(t, cfg))
}

func TestSynchronizer_FailuresLeaveFileUntouched(t *testing.T) {
	cases := map[string]struct {
		content string
		err     error
	}{
		"missing sentinel": {
			content: "/*\n * no guard here\n */\nint x;\n",
			err:     extractor.ErrSentinelNotFound,
		},
		"marker at end of file": {
			content: libHeader + " * = dangling",
			err:     extractor.ErrMarkerAtEOF,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t, tc.content)
			s, err := NewSynchronizer(cfg, zap.NewNop())
			require.NoError(t, err)

			_, err = s.Run(context.Background())
			require.ErrorIs(t, err, tc.err)
			assert.Contains(t, err.Error(), cfg.Target)
			assert.Equal(t, tc.content, readTarget(t, cfg))
		})
	}
}

func TestSynchronizer_SyntaxLocatorIgnoresCommentedGuard(t *testing.T) {
	content := "/*\n#ifndef OLD_H\n*/\n" + libHeader
	cfg := testConfig(t, content)
	cfg.Guard.Locator = "syntax"

	run(t, cfg)
	out := readTarget(t, cfg)
	assert.NotContains(t, out, "OLD_H")
	assert.True(t, strings.HasSuffix(out, libHeader))
}

func TestSynchronizer_UnknownLocator(t *testing.T) {
	cfg := config.Default()
	cfg.Guard.Locator = "regex"
	_, err := NewSynchronizer(cfg, nil)
	assert.Error(t, err)
}

func TestSynchronizer_RequireClean(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	cfg := testConfig(t, libHeader)
	cfg.RequireClean = true
	dir := filepath.Dir(cfg.Target)

	git := func(args ...string) {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	git("init", "-q")
	git("add", "lib.h")
	git("commit", "-q", "-m", "init")

	edited := strings.Replace(libHeader, "int alpha;", "long alpha;", 1)
	require.NoError(t, os.WriteFile(cfg.Target, []byte(edited), 0o644))

	s, err := NewSynchronizer(cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.ErrorIs(t, err, storage.ErrDirty)
	assert.Equal(t, edited, readTarget(t, cfg))

	git("commit", "-q", "-am", "edit")
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Written)
}
