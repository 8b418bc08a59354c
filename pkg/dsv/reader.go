package dsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nharbeck/rowio/pkg/record"
)

// maxLine bounds a single input line, header included.
const maxLine = 1 << 20

// Reader reads typed records from delimited text. The header line is
// consumed on construction. With header verification on (the default),
// file columns are matched to schema fields by name, so column order
// does not matter and unknown columns are tolerated and exposed as
// extra columns.
type Reader struct {
	scanner *bufio.Scanner
	file    *os.File // nil when reading a caller-owned stream
	schema  record.Schema
	fields  []record.Field
	delim   string

	// colmap maps schema field positions to file column positions.
	colmap []int
	// extras lists unmapped file columns in file order.
	extras  []int
	numCols int

	values  []record.Value // reusable decode buffer
	line    int            // 1-based, header is line 1
	records int
	closed  bool
}

// NewReader reads records from r. The caller keeps ownership of r;
// Close does not close it.
func NewReader(r io.Reader, schema record.Schema, opts Options) (*Reader, error) {
	if schema.Len() == 0 {
		return nil, ErrNoColumns
	}
	delim, err := opts.delimiter()
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	dr := &Reader{
		scanner: scanner,
		schema:  schema,
		fields:  schema.Fields(),
		delim:   string(delim),
		values:  make([]record.Value, schema.Len()),
	}

	if err := dr.readHeader(opts.TrustHeader); err != nil {
		return nil, err
	}
	return dr, nil
}

// Open opens the file at path for reading. Close closes the file.
func Open(path string, schema record.Schema, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r, err := NewReader(f, schema, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// OpenCSV opens a comma-separated file at path.
func OpenCSV(path string, schema record.Schema) (*Reader, error) {
	return Open(path, schema, Options{Delimiter: Comma})
}

// OpenTSV opens a tab-separated file at path.
func OpenTSV(path string, schema record.Schema) (*Reader, error) {
	return Open(path, schema, Options{Delimiter: Tab})
}

// readHeader consumes line 1 and builds the column mapping.
func (r *Reader) readHeader(trust bool) error {
	cols, err := r.nextLine()
	if err != nil {
		if err == io.EOF {
			return &FormatError{Line: 1, Err: ErrEmptyHeader}
		}
		return err
	}

	if trust {
		// Columns are assumed to match the schema in order.
		r.numCols = r.schema.Len()
		r.colmap = make([]int, r.numCols)
		for i := range r.colmap {
			r.colmap[i] = i
		}
		return nil
	}

	r.numCols = len(cols)
	r.colmap = make([]int, r.schema.Len())
	mapped := make([]bool, len(cols))

	for i, f := range r.fields {
		found := -1
		for c, name := range cols {
			if name == f.Name {
				found = c
				break
			}
		}
		if found < 0 {
			return &FormatError{Line: 1, Name: f.Name, Err: ErrMissingColumn}
		}
		r.colmap[i] = found
		mapped[found] = true
	}

	for c := range cols {
		if !mapped[c] {
			r.extras = append(r.extras, c)
		}
	}
	return nil
}

// nextLine returns the columns of the next input line, or io.EOF.
func (r *Reader) nextLine() ([]string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, fmt.Errorf("read line %d: %w", r.line+1, err)
		}
		return nil, io.EOF
	}
	r.line++

	text := r.scanner.Text()
	text = strings.TrimSuffix(text, "\r")
	return strings.Split(text, r.delim), nil
}

// readLine decodes the next row into r.values and returns its columns.
func (r *Reader) readLine() ([]string, error) {
	cols, err := r.nextLine()
	if err != nil {
		return nil, err
	}

	if len(cols) < r.numCols {
		return nil, &FormatError{Line: r.line, Err: ErrTooFewColumns}
	}
	if len(cols) > r.numCols {
		return nil, &FormatError{Line: r.line, Err: ErrTooManyColumns}
	}

	for i, f := range r.fields {
		col := r.colmap[i]
		v, err := record.Parse(f.Kind, cols[col])
		if err != nil {
			return nil, &FormatError{Line: r.line, Column: col + 1, Name: f.Name, Err: err}
		}
		r.values[i] = v
	}
	return cols, nil
}

// Read decodes the next row into rec. It returns io.EOF when the input
// is exhausted.
func (r *Reader) Read(rec record.Target) error {
	if _, err := r.readLine(); err != nil {
		return err
	}
	if err := rec.SetValues(r.values); err != nil {
		return err
	}
	r.records++
	return nil
}

// ReadExtra is Read plus decoding of the extra columns, in file order,
// as values of the given kind. The decoded extras are appended to
// dst[:0] and returned; the result length always equals
// NumExtraColumns.
func (r *Reader) ReadExtra(rec record.Target, kind record.Kind, dst []record.Value) ([]record.Value, error) {
	cols, err := r.readLine()
	if err != nil {
		return nil, err
	}

	dst = dst[:0]
	for _, col := range r.extras {
		v, err := record.Parse(kind, cols[col])
		if err != nil {
			return nil, &FormatError{Line: r.line, Column: col + 1, Err: err}
		}
		dst = append(dst, v)
	}

	if err := rec.SetValues(r.values); err != nil {
		return nil, err
	}
	r.records++
	return dst, nil
}

// NumRecords returns the number of records read so far.
func (r *Reader) NumRecords() int {
	return r.records
}

// NumExtraColumns returns the number of file columns not mapped to a
// schema field.
func (r *Reader) NumExtraColumns() int {
	return len(r.extras)
}

// Schema returns the reader's schema.
func (r *Reader) Schema() record.Schema {
	return r.schema
}

// Close closes the file for file-backed readers. Closing twice is a
// no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
