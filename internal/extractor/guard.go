package extractor

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// GuardLocator finds the include guard that marks where the stable,
// non-generated content of a header begins.
type GuardLocator interface {
	// Locate returns the byte offset of the sentinel in src.
	Locate(src []byte) (int, error)
}

// NewGuardLocator creates a locator for the given mode ("text" or "syntax").
func NewGuardLocator(mode, sentinel string) (GuardLocator, error) {
	switch mode {
	case "text", "":
		return &TextLocator{Sentinel: sentinel}, nil
	case "syntax":
		return &SyntaxLocator{Sentinel: sentinel}, nil
	default:
		return nil, fmt.Errorf("unsupported guard locator: %s", mode)
	}
}

// TextLocator matches the first line that starts with the sentinel, ignoring
// leading indentation. Occurrences in the middle of a line (prose inside a
// comment, for instance) are not matches.
type TextLocator struct {
	Sentinel string
}

func (l *TextLocator) Locate(src []byte) (int, error) {
	s := string(src)
	pos := 0
	for pos <= len(s) {
		end := strings.IndexByte(s[pos:], '\n')
		line := s[pos:]
		if end >= 0 {
			line = s[pos : pos+end]
		}

		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, l.Sentinel) {
			return pos + len(line) - len(trimmed), nil
		}

		if end < 0 {
			break
		}
		pos += end + 1
	}
	return 0, fmt.Errorf("%w: %q", ErrSentinelNotFound, l.Sentinel)
}

// SyntaxLocator parses the header with the tree-sitter C grammar and returns
// the first preprocessor conditional whose text starts with the sentinel.
type SyntaxLocator struct {
	Sentinel string
}

const guardQuery = `(preproc_ifdef) @guard`

func (l *SyntaxLocator) Locate(src []byte) (int, error) {
	lang := c.GetLanguage()

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return 0, fmt.Errorf("failed to parse header: %w", err)
	}
	defer tree.Close()

	query, err := sitter.NewQuery([]byte(guardQuery), lang)
	if err != nil {
		return 0, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, capture := range m.Captures {
			if strings.HasPrefix(capture.Node.Content(src), l.Sentinel) {
				return int(capture.Node.StartByte()), nil
			}
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrSentinelNotFound, l.Sentinel)
}
