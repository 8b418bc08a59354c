package dsv

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/nharbeck/rowio/pkg/record"
)

// TableWriter writes records as space-aligned text columns. Each column
// is right-aligned in a fixed width chosen from its kind and widened to
// fit the column title. The output is meant for eyeballing, not for
// reading back.
type TableWriter struct {
	writer *bufio.Writer
	file   *os.File
	schema record.Schema
	prec   int
	widths []int
	line   []byte
	count  uint64
	closed bool
}

// kindWidth returns the text width reserved for values of the kind.
func kindWidth(k record.Kind) int {
	switch k {
	case record.Uint8:
		return 3
	case record.Uint16:
		return 5
	case record.Uint32:
		return 10
	case record.Uint64:
		return 20
	case record.Int8:
		return 4
	case record.Int16:
		return 6
	case record.Int32:
		return 11
	case record.Int64:
		return 21
	case record.Float32, record.Float64:
		return 10
	case record.Bool:
		return 5
	default:
		return 12
	}
}

// NewTableWriter writes aligned records to w. The title line is written
// immediately. Options.Precision applies; the delimiter is ignored.
func NewTableWriter(w io.Writer, schema record.Schema, opts Options) (*TableWriter, error) {
	if schema.Len() == 0 {
		return nil, ErrNoColumns
	}

	tw := &TableWriter{
		writer: bufio.NewWriter(w),
		schema: schema,
		prec:   opts.precision(),
		widths: make([]int, schema.Len()),
	}

	for i := 0; i < schema.Len(); i++ {
		f := schema.Field(i)
		tw.widths[i] = max(kindWidth(f.Kind), len(f.Name))
	}

	tw.line = tw.line[:0]
	for i, name := range schema.Names() {
		if i > 0 {
			tw.line = append(tw.line, ' ')
		}
		tw.line = padColumn(tw.line, name, tw.widths[i])
	}
	tw.line = append(tw.line, '\n')
	if _, err := tw.writer.Write(tw.line); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return tw, nil
}

// CreateTable creates the file at path and writes aligned records to it.
func CreateTable(path string, schema record.Schema, opts Options) (*TableWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	w, err := NewTableWriter(f, schema, opts)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	w.file = f
	return w, nil
}

// padColumn appends text right-aligned in width.
func padColumn(dst []byte, text string, width int) []byte {
	for n := width - len(text); n > 0; n-- {
		dst = append(dst, ' ')
	}
	return append(dst, text...)
}

// Append writes one record as an aligned row.
func (w *TableWriter) Append(rec record.Source) error {
	values := rec.Values()
	if err := w.schema.Check(values); err != nil {
		return err
	}

	w.line = w.line[:0]
	for i, v := range values {
		if i > 0 {
			w.line = append(w.line, ' ')
		}
		w.line = padColumn(w.line, v.Format(w.prec), w.widths[i])
	}
	w.line = append(w.line, '\n')

	if _, err := w.writer.Write(w.line); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *TableWriter) Count() uint64 {
	return w.count
}

// Flush writes buffered rows to the underlying stream.
func (w *TableWriter) Flush() error {
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Close flushes buffered rows and, for file-backed writers, closes the
// file. Closing twice is a no-op.
func (w *TableWriter) Close() error {
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
