package npy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/sys/unix"

	"github.com/nharbeck/rowio/pkg/record"
)

// mmapFile is a read-only memory-mapped file.
type mmapFile struct {
	data []byte
	size int64
}

// openMmap opens path and maps it into memory.
func openMmap(path string) (*mmapFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	size := info.Size()
	if size == 0 {
		return &mmapFile{data: nil, size: 0}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return &mmapFile{data: data, size: size}, nil
}

// Close unmaps the file.
func (m *mmapFile) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// Reader reads fixed-width records from a memory-mapped npy file. The
// file layout must match the given schema exactly, including field
// order. Records can be read sequentially or by index.
type Reader struct {
	mmap   *mmapFile
	schema record.Schema
	fields []record.Field
	width  int
	count  int
	data   []byte
	pos    int
	values []record.Value // reusable decode buffer
}

// Open memory-maps the npy file at path and validates its layout
// against the schema.
func Open(path string, schema record.Schema) (*Reader, error) {
	if schema.Len() == 0 {
		return nil, fmt.Errorf("%w: schema has no fields", ErrUnsupportedKind)
	}
	width, ok := schema.Width()
	if !ok {
		return nil, fmt.Errorf("%w: schema has string fields", ErrUnsupportedKind)
	}

	mmap, err := openMmap(path)
	if err != nil {
		return nil, err
	}

	text, err := parsePreamble(mmap.data)
	if err != nil {
		mmap.Close()
		return nil, err
	}
	info, err := parseHeader(text)
	if err != nil {
		mmap.Close()
		return nil, err
	}

	if err := matchSchema(info, schema); err != nil {
		mmap.Close()
		return nil, err
	}

	headerSize := preambleSize + len(text)
	expectedSize := int64(headerSize) + int64(info.Count)*int64(width)
	if mmap.size < expectedSize {
		mmap.Close()
		return nil, fmt.Errorf("file too small: %d < %d", mmap.size, expectedSize)
	}

	return &Reader{
		mmap:   mmap,
		schema: schema,
		fields: schema.Fields(),
		width:  width,
		count:  int(info.Count),
		data:   mmap.data[headerSize:],
		values: make([]record.Value, schema.Len()),
	}, nil
}

// matchSchema requires the file fields to equal the schema fields, in
// order, with identical dtype codes.
func matchSchema(info Info, schema record.Schema) error {
	if info.Fortran {
		return fmt.Errorf("%w: fortran order", ErrInvalidHeader)
	}
	if len(info.Fields) != schema.Len() {
		return fmt.Errorf("%w: file has %d fields, schema has %d",
			ErrSchemaMismatch, len(info.Fields), schema.Len())
	}
	for i, df := range info.Fields {
		f := schema.Field(i)
		code, _ := dtypeCode(f.Kind)
		if df.Name != f.Name || df.Code != code {
			return fmt.Errorf("%w: field %d is ('%s', '%s'), want ('%s', '%s')",
				ErrSchemaMismatch, i, df.Name, df.Code, f.Name, code)
		}
	}
	return nil
}

// Len returns the number of records in the file.
func (r *Reader) Len() int {
	return r.count
}

// Schema returns the reader's schema.
func (r *Reader) Schema() record.Schema {
	return r.schema
}

// Read decodes the next record into rec. It returns io.EOF when all
// records have been read.
func (r *Reader) Read(rec record.Target) error {
	if r.pos >= r.count {
		return io.EOF
	}
	if err := r.At(r.pos, rec); err != nil {
		return err
	}
	r.pos++
	return nil
}

// At decodes record i into rec.
func (r *Reader) At(i int, rec record.Target) error {
	if i < 0 || i >= r.count {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, r.count)
	}

	offset := i * r.width
	for n, f := range r.fields {
		size := f.Kind.Size()
		r.values[n] = decodeValue(f.Kind, r.data[offset:offset+size])
		offset += size
	}
	return rec.SetValues(r.values)
}

// decodeValue decodes one little-endian value.
func decodeValue(k record.Kind, b []byte) record.Value {
	switch k {
	case record.Int8:
		return record.Int8Value(int8(b[0]))
	case record.Uint8:
		return record.Uint8Value(b[0])
	case record.Bool:
		return record.BoolValue(b[0] != 0)
	case record.Int16:
		return record.Int16Value(int16(binary.LittleEndian.Uint16(b)))
	case record.Uint16:
		return record.Uint16Value(binary.LittleEndian.Uint16(b))
	case record.Int32:
		return record.Int32Value(int32(binary.LittleEndian.Uint32(b)))
	case record.Uint32:
		return record.Uint32Value(binary.LittleEndian.Uint32(b))
	case record.Int64:
		return record.Int64Value(int64(binary.LittleEndian.Uint64(b)))
	case record.Uint64:
		return record.Uint64Value(binary.LittleEndian.Uint64(b))
	case record.Float32:
		return record.Float32Value(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case record.Float64:
		return record.Float64Value(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	default:
		return record.Zero(k)
	}
}

// Close releases the memory mapping. Closing twice is a no-op.
func (r *Reader) Close() error {
	return r.mmap.Close()
}

// Inspect reads only the header of the npy file at path. It does not
// require a schema and leaves unknown dtype codes intact.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	preamble := make([]byte, preambleSize)
	if _, err := io.ReadFull(f, preamble); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if string(preamble[:len(magic)]) != magic {
		return Info{}, ErrMagicMismatch
	}
	if preamble[6] != versionMajor || preamble[7] != versionMinor {
		return Info{}, fmt.Errorf("%w: %d.%d", ErrVersionMismatch, preamble[6], preamble[7])
	}

	hdrLen := int(preamble[8]) | int(preamble[9])<<8
	text := make([]byte, hdrLen)
	if _, err := io.ReadFull(f, text); err != nil {
		return Info{}, fmt.Errorf("%w: truncated header", ErrInvalidHeader)
	}
	return parseHeader(string(text))
}
