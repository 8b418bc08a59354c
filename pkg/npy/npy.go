// Package npy writes and reads fixed-width records as NumPy .npy files.
//
// File layout (format version 1.0):
//
//	Magic:   6 bytes  ("\x93NUMPY")
//	Version: 2 bytes  (0x01, 0x00)
//	HdrLen:  2 bytes  (uint16 little-endian, length of the header text)
//	Header:  HdrLen bytes of python dict text, space-padded and
//	         newline-terminated so the total preamble is a multiple
//	         of 16 bytes
//	Records: Count fixed-width records, fields little-endian in
//	         schema order
//
// The header text describes the record layout, for example:
//
//	{'descr': [('x', '<i2'), ('b', '<f4')], 'fortran_order': False, 'shape': (2,), }
//
// The writer reserves the header at its maximum size up front and
// patches the final record count into the same bytes on Close, so a
// file is structurally valid after every append. Only scalar kinds
// with a fixed width can be stored; string fields are rejected.
package npy

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nharbeck/rowio/pkg/record"
)

const (
	magic        = "\x93NUMPY"
	versionMajor = 0x01
	versionMinor = 0x00
	preambleSize = 10 // magic + version + header length
)

var (
	// ErrMagicMismatch means the file does not start with the npy magic.
	ErrMagicMismatch = errors.New("not an npy file")

	// ErrVersionMismatch means the file uses an unsupported npy version.
	ErrVersionMismatch = errors.New("unsupported npy version")

	// ErrInvalidHeader means the header text could not be understood.
	ErrInvalidHeader = errors.New("invalid npy header")

	// ErrSchemaMismatch means the file layout differs from the schema.
	ErrSchemaMismatch = errors.New("schema does not match file")

	// ErrUnsupportedKind means a schema field has no npy representation.
	ErrUnsupportedKind = errors.New("kind not representable in npy")

	// ErrOutOfRange means a record index is outside the file.
	ErrOutOfRange = errors.New("record index out of range")
)

// dtypeCode returns the npy dtype code for the kind.
func dtypeCode(k record.Kind) (string, bool) {
	switch k {
	case record.Int8:
		return "<i1", true
	case record.Int16:
		return "<i2", true
	case record.Int32:
		return "<i4", true
	case record.Int64:
		return "<i8", true
	case record.Uint8:
		return "<u1", true
	case record.Uint16:
		return "<u2", true
	case record.Uint32:
		return "<u4", true
	case record.Uint64:
		return "<u8", true
	case record.Float32:
		return "<f4", true
	case record.Float64:
		return "<f8", true
	case record.Bool:
		return "|b1", true
	default:
		return "", false
	}
}

// kindForCode is the inverse of dtypeCode.
func kindForCode(code string) (record.Kind, bool) {
	switch code {
	case "<i1":
		return record.Int8, true
	case "<i2":
		return record.Int16, true
	case "<i4":
		return record.Int32, true
	case "<i8":
		return record.Int64, true
	case "<u1":
		return record.Uint8, true
	case "<u2":
		return record.Uint16, true
	case "<u4":
		return record.Uint32, true
	case "<u8":
		return record.Uint64, true
	case "<f4":
		return record.Float32, true
	case "<f8":
		return record.Float64, true
	case "|b1":
		return record.Bool, true
	default:
		return record.Invalid, false
	}
}

// DescrField is one named column from a file header.
type DescrField struct {
	Name string
	Code string
}

// Info is the decoded content of an npy header.
type Info struct {
	Fields  []DescrField
	Fortran bool
	Count   uint64
}

// Schema converts the header fields to a record schema. It fails if a
// dtype code has no corresponding kind.
func (i Info) Schema() (record.Schema, error) {
	fields := make([]record.Field, len(i.Fields))
	for n, f := range i.Fields {
		kind, ok := kindForCode(f.Code)
		if !ok {
			return record.Schema{}, fmt.Errorf("%w: no kind for dtype %q", ErrUnsupportedKind, f.Code)
		}
		fields[n] = record.Field{Name: f.Name, Kind: kind}
	}
	return record.NewSchema(fields...)
}

// parsePreamble validates magic and version and returns the header text.
func parsePreamble(data []byte) (string, error) {
	if len(data) < preambleSize {
		return "", ErrInvalidHeader
	}
	if string(data[:len(magic)]) != magic {
		return "", ErrMagicMismatch
	}
	if data[6] != versionMajor || data[7] != versionMinor {
		return "", fmt.Errorf("%w: %d.%d", ErrVersionMismatch, data[6], data[7])
	}

	hdrLen := int(data[8]) | int(data[9])<<8
	if len(data) < preambleSize+hdrLen {
		return "", fmt.Errorf("%w: truncated header", ErrInvalidHeader)
	}
	return string(data[preambleSize : preambleSize+hdrLen]), nil
}

// parseHeader decodes the python dict text of an npy header.
func parseHeader(text string) (Info, error) {
	var info Info

	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return info, fmt.Errorf("%w: not a dict", ErrInvalidHeader)
	}

	descr, err := dictValue(text, "descr")
	if err != nil {
		return info, err
	}
	if !strings.HasPrefix(descr, "[") {
		return info, fmt.Errorf("%w: descr is not a field list", ErrInvalidHeader)
	}
	info.Fields, err = parseDescr(descr)
	if err != nil {
		return info, err
	}

	order, err := dictValue(text, "fortran_order")
	if err != nil {
		return info, err
	}
	switch order {
	case "True":
		info.Fortran = true
	case "False":
		info.Fortran = false
	default:
		return info, fmt.Errorf("%w: fortran_order %q", ErrInvalidHeader, order)
	}

	shape, err := dictValue(text, "shape")
	if err != nil {
		return info, err
	}
	info.Count, err = parseShape(shape)
	if err != nil {
		return info, err
	}

	return info, nil
}

// dictValue extracts the raw value for a key from the header dict. The
// header grammar is flat except for the descr list, so values end at
// the first comma outside brackets.
func dictValue(text, key string) (string, error) {
	marker := "'" + key + "':"
	start := strings.Index(text, marker)
	if start < 0 {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidHeader, key)
	}
	rest := text[start+len(marker):]

	depth := 0
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ',':
			if depth == 0 {
				return strings.TrimSpace(rest[:i]), nil
			}
		case '}':
			if depth == 0 {
				return strings.TrimSpace(rest[:i]), nil
			}
		}
	}
	return strings.TrimSpace(rest), nil
}

// parseDescr decodes "[('name', '<i2'), ...]" into fields.
func parseDescr(descr string) ([]DescrField, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(descr, "["), "]")
	var fields []DescrField

	for len(body) > 0 {
		open := strings.IndexByte(body, '(')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(body[open:], ')')
		if closing < 0 {
			return nil, fmt.Errorf("%w: unterminated descr tuple", ErrInvalidHeader)
		}
		tuple := body[open+1 : open+closing]
		body = body[open+closing+1:]

		name, code, ok := strings.Cut(tuple, ",")
		if !ok {
			return nil, fmt.Errorf("%w: descr tuple %q", ErrInvalidHeader, tuple)
		}
		fields = append(fields, DescrField{
			Name: unquote(name),
			Code: unquote(code),
		})
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty descr", ErrInvalidHeader)
	}
	return fields, nil
}

// parseShape decodes "(N,)" and rejects multi-dimensional shapes.
func parseShape(shape string) (uint64, error) {
	body := strings.TrimSuffix(strings.TrimPrefix(shape, "("), ")")
	dims := strings.Split(body, ",")

	var counts []uint64
	for _, d := range dims {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		n, err := strconv.ParseUint(d, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: shape %q", ErrInvalidHeader, shape)
		}
		counts = append(counts, n)
	}

	if len(counts) != 1 {
		return 0, fmt.Errorf("%w: want one dimension, got %d", ErrInvalidHeader, len(counts))
	}
	return counts[0], nil
}

// unquote strips surrounding whitespace and single quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "'")
	s = strings.TrimSuffix(s, "'")
	return s
}
