package npy

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/nharbeck/rowio/pkg/record"
)

// writeBufferSize is the bufio size for record appends.
const writeBufferSize = 256 * 1024

// Writer appends fixed-width records to an npy file. The header is
// written twice at construction: once sized for the largest possible
// record count, fixing the header length, and once describing an empty
// file. Close patches the final count into the same bytes.
type Writer struct {
	file     *os.File
	writer   *bufio.Writer
	schema   record.Schema
	fields   []record.Field
	fixedLen int // header size excluding the trailing newline
	count    uint64
	path     string
	buf      []byte // reusable record buffer
	closed   bool
}

// Create creates an npy file at path, truncating existing data. All
// schema fields must have a fixed width; string fields are rejected.
func Create(path string, schema record.Schema) (*Writer, error) {
	if schema.Len() == 0 {
		return nil, fmt.Errorf("%w: schema has no fields", ErrUnsupportedKind)
	}
	for _, f := range schema.Fields() {
		if _, ok := dtypeCode(f.Kind); !ok {
			return nil, fmt.Errorf("%w: field %q is %s", ErrUnsupportedKind, f.Name, f.Kind)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	w := &Writer{
		file:   f,
		schema: schema,
		fields: schema.Fields(),
		path:   path,
	}

	// The first header fixes the reserved size, the second one makes
	// the empty file well formed.
	if err := w.writeHeader(math.MaxUint64); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := w.writeHeader(0); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	w.writer = bufio.NewWriterSize(f, writeBufferSize)
	return w, nil
}

// encodeHeader renders the complete preamble and header text for the
// given record count.
func (w *Writer) encodeHeader(count uint64) []byte {
	hdr := make([]byte, 0, 128)
	hdr = append(hdr, magic...)
	hdr = append(hdr, versionMajor, versionMinor)
	hdr = append(hdr, 0, 0) // header length, patched below

	hdr = append(hdr, "{'descr': ["...)
	for i, f := range w.fields {
		if i > 0 {
			hdr = append(hdr, ", "...)
		}
		code, _ := dtypeCode(f.Kind)
		hdr = append(hdr, "('"...)
		hdr = append(hdr, f.Name...)
		hdr = append(hdr, "', '"...)
		hdr = append(hdr, code...)
		hdr = append(hdr, "')"...)
	}
	hdr = append(hdr, "], 'fortran_order': False, 'shape': ("...)
	hdr = strconv.AppendUint(hdr, count, 10)
	hdr = append(hdr, ",), }"...)

	// Space padding for 16 byte alignment of the whole header.
	for (len(hdr)+1)%16 != 0 {
		hdr = append(hdr, ' ')
	}
	// Updated headers must occupy exactly the reserved space.
	if w.fixedLen == 0 {
		w.fixedLen = len(hdr)
	} else {
		for len(hdr) < w.fixedLen {
			hdr = append(hdr, ' ')
		}
	}
	hdr = append(hdr, '\n')

	binary.LittleEndian.PutUint16(hdr[8:10], uint16(len(hdr)-preambleSize))
	return hdr
}

// writeHeader seeks to the start of the file and rewrites the header.
func (w *Writer) writeHeader(count uint64) error {
	hdr := w.encodeHeader(count)
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek header: %w", err)
	}
	if _, err := w.file.Write(hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// Append writes one record. The record's values must match the writer's
// schema in count and kinds.
func (w *Writer) Append(rec record.Source) error {
	values := rec.Values()
	if err := w.schema.Check(values); err != nil {
		return err
	}

	w.buf = w.buf[:0]
	for _, v := range values {
		w.buf = appendValue(w.buf, v)
	}
	if _, err := w.writer.Write(w.buf); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.count++
	return nil
}

// appendValue encodes v little-endian.
func appendValue(dst []byte, v record.Value) []byte {
	switch v.Kind() {
	case record.Int8:
		return append(dst, byte(v.Int()))
	case record.Uint8:
		return append(dst, byte(v.Uint()))
	case record.Bool:
		if v.Bool() {
			return append(dst, 1)
		}
		return append(dst, 0)
	case record.Int16:
		return binary.LittleEndian.AppendUint16(dst, uint16(v.Int()))
	case record.Uint16:
		return binary.LittleEndian.AppendUint16(dst, uint16(v.Uint()))
	case record.Int32:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.Int()))
	case record.Uint32:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.Uint()))
	case record.Int64:
		return binary.LittleEndian.AppendUint64(dst, uint64(v.Int()))
	case record.Uint64:
		return binary.LittleEndian.AppendUint64(dst, v.Uint())
	case record.Float32:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v.Float())))
	case record.Float64:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v.Float()))
	default:
		return dst
	}
}

// Count returns the number of records written.
func (w *Writer) Count() uint64 {
	return w.count
}

// Path returns the path of the file.
func (w *Writer) Path() string {
	return w.path
}

// Schema returns the writer's schema.
func (w *Writer) Schema() record.Schema {
	return w.schema
}

// Close flushes buffered records, patches the final record count into
// the header, and closes the file. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := w.writeHeader(w.count); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
