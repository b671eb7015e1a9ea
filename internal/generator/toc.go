package generator

import (
	"fmt"
	"strings"

	"hdrtoc/internal/extractor"
)

// Labels controls the fixed wording of the table of contents.
type Labels struct {
	Title       string
	Declaration string
	Definition  string
}

func DefaultLabels() Labels {
	return Labels{
		Title:       "TABLE OF CONTENTS",
		Declaration: "Declarations",
		Definition:  "Definitions",
	}
}

// Renderer produces the preamble that replaces a header's front matter.
type Renderer struct {
	Header string
	Docs   string
	Labels Labels
}

func NewRenderer(header, docs string, labels Labels) *Renderer {
	return &Renderer{
		Header: header,
		Docs:   docs,
		Labels: labels,
	}
}

// RenderTOC renders the table of contents comment block for idx.
//
//	/*
//	 *       TABLE OF CONTENTS
//	 *
//	 * 1. COPYING
//	 * - Declarations:	line 484
//	 * - Definitions:	line 1118
//	 */
//
// Entries are separated by a bare " *" line; none follows the last entry.
func (r *Renderer) RenderTOC(idx *extractor.Index) string {
	var sb strings.Builder

	sb.WriteString("/*\n")
	fmt.Fprintf(&sb, " *       %s\n", r.Labels.Title)

	for i, sec := range idx.Sections() {
		sb.WriteString(" *\n")
		fmt.Fprintf(&sb, " * %d. %s\n", i+1, sec.Name)
		fmt.Fprintf(&sb, " * - %s:\tline %d\n", r.Labels.Declaration, sec.Declaration())
		if def, ok := sec.Definition(); ok {
			fmt.Fprintf(&sb, " * - %s:\tline %d\n", r.Labels.Definition, def)
		}
	}

	sb.WriteString(" */\n\n")
	return sb.String()
}

// Render assembles header, table of contents, docs and the retained suffix.
func (r *Renderer) Render(idx *extractor.Index, suffix string) string {
	toc := r.RenderTOC(idx)

	var sb strings.Builder
	sb.Grow(len(r.Header) + len(toc) + len(r.Docs) + len(suffix))
	sb.WriteString(r.Header)
	sb.WriteString(toc)
	sb.WriteString(r.Docs)
	sb.WriteString(suffix)
	return sb.String()
}

// PreambleLines counts the lines Render places before the suffix.
func (r *Renderer) PreambleLines(idx *extractor.Index) int {
	return strings.Count(r.Header, "\n") + strings.Count(r.RenderTOC(idx), "\n") + strings.Count(r.Docs, "\n")
}
