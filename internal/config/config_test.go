package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "include/rapidstring.h", cfg.Target)
	assert.Equal(t, " * =", cfg.Scan.Marker)
	assert.Equal(t, 8, cfg.Scan.ContentOffset)
	assert.Equal(t, "#ifndef", cfg.Guard.Sentinel)
	assert.True(t, strings.HasPrefix(cfg.Header, "/*\n * rapidstring"))
	assert.True(t, strings.HasSuffix(cfg.Header, " */\n\n"))
	assert.True(t, strings.HasSuffix(cfg.Docs, " */\n\n"))
}

func TestLoadConfig_OverlaysYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "license.txt", "/* MIT */\n\n")
	path := writeFile(t, dir, "hdrtoc.yaml", `
target: include/banner.h
header_file: license.txt
docs: "/** docs */\n\n"
scan:
  content_offset: 6
guard:
  locator: syntax
toc:
  definition_label: Defintions
watch:
  debounce: 1s
settle: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "include/banner.h", cfg.Target)
	assert.Equal(t, "/* MIT */\n\n", cfg.Header)
	assert.Equal(t, "/** docs */\n\n", cfg.Docs)
	assert.Equal(t, 6, cfg.Scan.ContentOffset)
	assert.Equal(t, " * =", cfg.Scan.Marker, "unset keys keep defaults")
	assert.Equal(t, "syntax", cfg.Guard.Locator)
	assert.Equal(t, "Defintions", cfg.TOC.DefinitionLabel)
	assert.Equal(t, "Declarations", cfg.TOC.DeclarationLabel)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.True(t, cfg.Settle)

	conv := cfg.Convention()
	assert.Equal(t, 6, conv.ContentOffset)
	assert.Equal(t, 2, conv.NameOffset)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HDRTOC_TARGET", "other.h")
	t.Setenv("HDRTOC_LOCATOR", "syntax")
	t.Setenv("HDRTOC_SETTLE", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "other.h", cfg.Target)
	assert.Equal(t, "syntax", cfg.Guard.Locator)
	assert.True(t, cfg.Settle)

	t.Setenv("HDRTOC_SETTLE", "maybe")
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(writeFile(t, dir, "bad.yaml", "scan: [1, 2"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, dir, "missing-header.yaml", "header_file: gone.txt\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, dir, "invalid.yaml", "guard:\n  locator: regex\n"))
	assert.ErrorContains(t, err, "guard.locator")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty marker":    func(c *Config) { c.Scan.Marker = "" },
		"empty closer":    func(c *Config) { c.Scan.Closer = "" },
		"zero name line":  func(c *Config) { c.Scan.NameOffset = 0 },
		"negative skip":   func(c *Config) { c.Scan.SkipLines = -1 },
		"empty sentinel":  func(c *Config) { c.Guard.Sentinel = "" },
		"unknown locator": func(c *Config) { c.Guard.Locator = "ast" },
	}

	require.NoError(t, Default().Validate())
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
