package extractor

import (
	"strings"
)

// Convention describes the banner layout the indexer expects in the target file:
//
//	/*
//	 * ===============================================   <- marker (index i)
//	 *
//	 *                  SECTION NAME                     <- i + NameOffset
//	 *
//	 * ===============================================
//	 */
//
//	/**                                                  <- line i + ContentOffset (1-based)
type Convention struct {
	// Marker is the prefix that opens a banner.
	Marker string
	// Closer is the comment terminator; a marker directly followed by it is
	// the closing rule of a banner, not an opening one.
	Closer string
	// NameOffset is the distance from the marker to the section name line.
	NameOffset int
	// ContentOffset is added to the marker's zero-based index to produce the
	// 1-based line number of the section's first content line.
	ContentOffset int
	// SkipLines leading lines are not scanned.
	SkipLines int
}

// DefaultConvention matches the banners used in rapidstring.h.
func DefaultConvention() Convention {
	return Convention{
		Marker:        " * =",
		Closer:        " */",
		NameOffset:    2,
		ContentOffset: 8,
		SkipLines:     0,
	}
}

// Indexer builds an ordered section index from the lines of a header.
type Indexer struct {
	conv Convention
}

func NewIndexer(conv Convention) *Indexer {
	return &Indexer{conv: conv}
}

// IndexSource splits src into lines and indexes them.
func (ix *Indexer) IndexSource(src []byte) (*Index, error) {
	return ix.Index(SplitLines(string(src)))
}

// Index scans lines for section markers. Every lookahead is bounds-checked,
// so a truncated banner yields a *MarkerError instead of a panic.
func (ix *Indexer) Index(lines []string) (*Index, error) {
	idx := NewIndex()

	for i := ix.conv.SkipLines; i < len(lines); i++ {
		if !strings.HasPrefix(lines[i], ix.conv.Marker) {
			continue
		}
		if i+1 >= len(lines) {
			return nil, &MarkerError{Line: i + 1, Err: ErrMarkerAtEOF}
		}
		if strings.HasPrefix(lines[i+1], ix.conv.Closer) {
			continue
		}
		if i+ix.conv.NameOffset >= len(lines) {
			return nil, &MarkerError{Line: i + 1, Err: ErrMissingName}
		}

		name := sectionName(lines[i+ix.conv.NameOffset])
		if err := idx.add(name, i+ix.conv.ContentOffset); err != nil {
			return nil, &MarkerError{Line: i + 1, Name: name, Err: err}
		}
	}

	return idx, nil
}

func sectionName(line string) string {
	return strings.TrimSpace(strings.ReplaceAll(line, "*", " "))
}

// SplitLines splits s on newlines. A trailing newline does not produce an
// extra empty line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
