package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrMarkerAtEOF is returned when a marker has no following line to look ahead to.
	ErrMarkerAtEOF = errors.New("marker has no following line")
	// ErrMissingName is returned when the section name line lies past the end of the file.
	ErrMissingName = errors.New("marker has no section name line")
	// ErrTooManyOccurrences is returned when a section name appears more than twice.
	ErrTooManyOccurrences = errors.New("section name appears more than twice")
	// ErrSentinelNotFound is returned when the include guard cannot be located.
	ErrSentinelNotFound = errors.New("include-guard sentinel not found")
)

// MarkerError ties a scan failure to the marker line that caused it.
type MarkerError struct {
	Line int // 1-based
	Name string
	Err  error
}

func (e *MarkerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("line %d: section %q: %v", e.Line, e.Name, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *MarkerError) Unwrap() error {
	return e.Err
}
