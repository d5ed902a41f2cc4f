package docxmerge

import (
	"errors"
	"fmt"
)

var (
	ErrArchiveRead           = errors.New("archive read")
	ErrArchiveWrite          = errors.New("archive write")
	ErrTemplateSyntax        = errors.New("template syntax")
	ErrUndefinedVariable     = errors.New("undefined variable")
	ErrMalformedRow          = errors.New("malformed row")
	ErrAmbiguousColumn       = errors.New("ambiguous column")
	ErrInvalidFilename       = errors.New("invalid output filename")
	ErrConversionUnavailable = errors.New("conversion unavailable")
	ErrConversionFailed      = errors.New("conversion failed")
)

// RowError ties a failure to the data row that caused it.
// Row is 1-based and counts data rows only (the header is not a row).
// Line is the line in the data file, or 0 if unknown.
type RowError struct {
	Row  int
	Line int
	Err  error
}

func (e *RowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("row %d (line %d): %v", e.Row, e.Line, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// UndefinedError is returned when a template references a name the row
// mapping does not provide.
type UndefinedError struct {
	Template string
	Name     string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("%s: %q is not defined", e.Template, e.Name)
}

func (e *UndefinedError) Is(target error) bool { return target == ErrUndefinedVariable }
