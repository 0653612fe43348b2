package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn reports a required header absent from the input.
	ErrMissingColumn = errors.New("missing required column")

	// ErrInvalidValue reports a cell that could not be parsed.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnsupportedFormat reports an input file type the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoHeader reports an input with no header row at all.
	ErrNoHeader = errors.New("no header row")
)

// LoadError describes why the input dataset could not be loaded. It is fatal:
// no partial dataset is ever served.
type LoadError struct {
	Source string // file path or sheet
	Column string // offending column, if any
	Row    int    // 1-based spreadsheet row, 0 when not row-specific
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load")
	if e.Source != "" {
		fmt.Fprintf(&b, " %s", e.Source)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// WithSource returns err with the source attached when err is a *LoadError,
// or wraps it in a new LoadError otherwise.
func WithSource(err error, source string) error {
	if err == nil {
		return nil
	}
	var le *LoadError
	if errors.As(err, &le) {
		cp := *le
		cp.Source = source
		return &cp
	}
	return &LoadError{Source: source, Err: err}
}
