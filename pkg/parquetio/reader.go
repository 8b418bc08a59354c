package parquetio

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/nharbeck/rowio/pkg/record"
)

// readBatchSize is how many rows are decoded per ReadRows call.
const readBatchSize = 1024

// Reader streams records out of a parquet file one row group at a
// time. Columns are matched by name; the file may carry extra columns,
// which are skipped.
type Reader struct {
	pq       *parquet.File
	file     *os.File
	schema   record.Schema
	fields   []record.Field
	fieldFor map[int]int // leaf column index -> schema field index
	groups   []parquet.RowGroup
	groupIdx int
	rows     parquet.Rows
	buf      []parquet.Row
	bufPos   int
	bufLen   int
	values   []record.Value
	records  uint64
	closed   bool
}

// NewReader returns a reader over a parquet file of the given size.
// The caller keeps ownership of r.
func NewReader(r io.ReaderAt, size int64, schema record.Schema) (*Reader, error) {
	pq, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	cols, err := resolveColumns(pq.Schema(), schema)
	if err != nil {
		return nil, err
	}
	fieldFor := make(map[int]int, len(cols))
	for i, col := range cols {
		fieldFor[col] = i
	}

	return &Reader{
		pq:       pq,
		schema:   schema,
		fields:   schema.Fields(),
		fieldFor: fieldFor,
		groups:   pq.RowGroups(),
		groupIdx: -1,
		buf:      make([]parquet.Row, readBatchSize),
		values:   make([]record.Value, schema.Len()),
	}, nil
}

// Open opens the parquet file at path and returns a reader that owns
// the file handle.
func Open(path string, schema record.Schema) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	r, err := NewReader(f, st.Size(), schema)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// Len returns the total number of rows in the file.
func (r *Reader) Len() int64 { return r.pq.NumRows() }

// NumRecords returns the number of records read so far.
func (r *Reader) NumRecords() uint64 { return r.records }

// Schema returns the schema records are decoded into.
func (r *Reader) Schema() record.Schema { return r.schema }

// Read decodes the next record into rec. It returns io.EOF after the
// last row.
func (r *Reader) Read(rec record.Target) error {
	for r.bufPos >= r.bufLen {
		if err := r.fill(); err != nil {
			return err
		}
	}
	row := r.buf[r.bufPos]
	r.bufPos++

	for i, f := range r.fields {
		r.values[i] = record.Zero(f.Kind)
	}
	for _, val := range row {
		field, ok := r.fieldFor[val.Column()]
		if !ok || val.IsNull() {
			continue
		}
		r.values[field] = recordValue(r.fields[field].Kind, val)
	}

	if err := rec.SetValues(r.values); err != nil {
		return err
	}
	r.records++
	return nil
}

// fill refills the row buffer, advancing to the next row group when the
// current one is exhausted. It returns io.EOF after the last group.
func (r *Reader) fill() error {
	for {
		if r.rows != nil {
			n, err := r.rows.ReadRows(r.buf)
			if n > 0 {
				r.bufPos, r.bufLen = 0, n
				return nil
			}
			if err != nil && err != io.EOF {
				return fmt.Errorf("read parquet rows: %w", err)
			}
			if err := r.rows.Close(); err != nil {
				return fmt.Errorf("close row group: %w", err)
			}
			r.rows = nil
		}

		r.groupIdx++
		if r.groupIdx >= len(r.groups) {
			return io.EOF
		}
		r.rows = r.groups[r.groupIdx].Rows()
	}
}

// Close releases the current row group and closes the file if the
// reader owns one.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	if r.rows != nil {
		if err := r.rows.Close(); err != nil {
			firstErr = fmt.Errorf("close row group: %w", err)
		}
		r.rows = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close parquet file: %w", err)
		}
	}
	return firstErr
}
