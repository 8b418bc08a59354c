package dsv

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/nharbeck/rowio/pkg/record"
)

// UntypedWriter writes delimited rows from loose values instead of a
// schema. The column count is fixed by the header names given at
// construction; each Append must produce exactly that many columns
// after slice arguments are unpacked.
type UntypedWriter struct {
	writer *bufio.Writer
	file   *os.File // nil when writing to a caller-owned stream
	delim  byte
	prec   int
	ncols  int
	row    []byte // staged row, flushed only when the count matches
	cols   int
	closed bool
}

// NewUntypedWriter writes rows to w under the given column names. The
// header line is written immediately. An empty column list is rejected.
func NewUntypedWriter(w io.Writer, columns []string, opts Options) (*UntypedWriter, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	delim, err := opts.delimiter()
	if err != nil {
		return nil, err
	}

	uw := &UntypedWriter{
		writer: bufio.NewWriter(w),
		delim:  delim,
		prec:   opts.precision(),
		ncols:  len(columns),
	}

	for i, name := range columns {
		if i > 0 {
			uw.row = append(uw.row, delim)
		}
		uw.row = append(uw.row, name...)
	}
	uw.row = append(uw.row, '\n')
	if _, err := uw.writer.Write(uw.row); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return uw, nil
}

// CreateUntyped creates the file at path and writes rows to it.
func CreateUntyped(path string, columns []string, opts Options) (*UntypedWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	w, err := NewUntypedWriter(f, columns, opts)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.file = f
	return w, nil
}

// Append writes one row built from args. Scalar arguments contribute
// one column each; slice arguments contribute one column per element.
// Supported scalars are bools, all integer widths, floats, strings and
// record.Value. The row is staged in full and written only if the
// column count matches the header, so a failed Append emits nothing
// and the writer stays usable.
func (w *UntypedWriter) Append(args ...any) error {
	w.row = w.row[:0]
	w.cols = 0

	for _, arg := range args {
		if err := w.appendArg(arg); err != nil {
			return err
		}
	}

	if w.cols < w.ncols {
		return fmt.Errorf("%w: got %d, want %d", ErrTooFewColumns, w.cols, w.ncols)
	}
	if w.cols > w.ncols {
		return fmt.Errorf("%w: got %d, want %d", ErrTooManyColumns, w.cols, w.ncols)
	}

	w.row = append(w.row, '\n')
	if _, err := w.writer.Write(w.row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

// appendArg stages one argument, unpacking slices.
func (w *UntypedWriter) appendArg(arg any) error {
	switch xs := arg.(type) {
	case []record.Value:
		for _, x := range xs {
			w.appendColumn(x.Format(w.prec))
		}
	case []any:
		for _, x := range xs {
			if err := w.appendScalar(x); err != nil {
				return err
			}
		}
	case []string:
		for _, x := range xs {
			w.appendColumn(x)
		}
	case []bool:
		for _, x := range xs {
			w.appendValue(record.BoolValue(x))
		}
	case []int:
		for _, x := range xs {
			w.appendValue(record.Int64Value(int64(x)))
		}
	case []int64:
		for _, x := range xs {
			w.appendValue(record.Int64Value(x))
		}
	case []uint64:
		for _, x := range xs {
			w.appendValue(record.Uint64Value(x))
		}
	case []float32:
		for _, x := range xs {
			w.appendValue(record.Float32Value(x))
		}
	case []float64:
		for _, x := range xs {
			w.appendValue(record.Float64Value(x))
		}
	default:
		return w.appendScalar(arg)
	}
	return nil
}

// appendScalar stages one scalar column.
func (w *UntypedWriter) appendScalar(arg any) error {
	v, ok := record.ValueOf(arg)
	if !ok {
		return fmt.Errorf("unsupported column type %T", arg)
	}
	w.appendValue(v)
	return nil
}

func (w *UntypedWriter) appendValue(v record.Value) {
	w.appendColumn(v.Format(w.prec))
}

func (w *UntypedWriter) appendColumn(text string) {
	if w.cols > 0 {
		w.row = append(w.row, w.delim)
	}
	w.row = append(w.row, text...)
	w.cols++
}

// NumColumns returns the fixed column count.
func (w *UntypedWriter) NumColumns() int {
	return w.ncols
}

// Flush writes buffered rows to the underlying stream.
func (w *UntypedWriter) Flush() error {
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Close flushes buffered rows and, for file-backed writers, closes the
// file. Closing twice is a no-op.
func (w *UntypedWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Flush(); err != nil {
		if w.file != nil {
			w.file.Close()
		}
		return fmt.Errorf("flush: %w", err)
	}
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
