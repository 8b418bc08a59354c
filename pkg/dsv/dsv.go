// Package dsv reads and writes delimiter-separated record files.
//
// The format is a header line naming the columns followed by one line
// per record. Values are written verbatim with no quoting or escaping,
// so delimiter bytes and newlines must not appear inside values. CSV
// (comma) and TSV (tab) are the common instantiations.
//
// Writers and readers move whole records through the record.Source and
// record.Target contracts and are not safe for concurrent use.
package dsv

import (
	"errors"
	"fmt"
)

// Column delimiters for the common formats.
const (
	Comma = byte(',')
	Tab   = byte('\t')
)

// Options configures writers and readers. The zero value selects the
// comma delimiter, shortest round-trip float output, and header
// verification.
type Options struct {
	// Delimiter separates columns. Zero means comma.
	Delimiter byte

	// Precision is the number of significant digits written for
	// floats. Zero or negative means the shortest form that parses
	// back to the same value.
	Precision int

	// TrustHeader disables header verification on readers. Columns
	// are assumed to match the schema in order and the content of
	// line 1 is not checked. Row column counts are still enforced.
	TrustHeader bool
}

// delimiter returns the effective delimiter byte.
func (o Options) delimiter() (byte, error) {
	switch o.Delimiter {
	case 0:
		return Comma, nil
	case '\n', '\r':
		return 0, fmt.Errorf("invalid delimiter %q", o.Delimiter)
	default:
		return o.Delimiter, nil
	}
}

// precision returns the effective float precision.
func (o Options) precision() int {
	if o.Precision <= 0 {
		return -1
	}
	return o.Precision
}

// Sentinel errors, matchable through errors.Is on wrapped errors.
var (
	// ErrEmptyHeader means the input ended before a header line.
	ErrEmptyHeader = errors.New("missing header line")

	// ErrMissingColumn means a schema field has no header column.
	ErrMissingColumn = errors.New("missing header column")

	// ErrTooFewColumns means a row has fewer columns than the header.
	ErrTooFewColumns = errors.New("too few columns")

	// ErrTooManyColumns means a row has more columns than the header.
	ErrTooManyColumns = errors.New("too many columns")

	// ErrNoColumns means a writer was built with an empty column list.
	ErrNoColumns = errors.New("no columns")
)

// FormatError describes a malformed header or row in a delimited file.
type FormatError struct {
	// Line is the 1-based line number, counting the header as line 1.
	Line int

	// Column is the 1-based file column, or 0 when the whole line is
	// at fault.
	Column int

	// Name is the schema field or header column involved, if any.
	Name string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	msg := fmt.Sprintf("line %d", e.Line)
	if e.Column > 0 {
		msg += fmt.Sprintf(" column %d", e.Column)
	}
	if e.Name != "" {
		msg += fmt.Sprintf(" field %q", e.Name)
	}
	return msg + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *FormatError) Unwrap() error { return e.Err }
