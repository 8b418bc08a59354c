package dsv

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nharbeck/rowio/pkg/record"
)

var pointSchema = record.MustSchema(
	record.Field{Name: "x", Kind: record.Int16},
	record.Field{Name: "b", Kind: record.Float32},
)

// fullSchema exercises every kind the text format supports.
var fullSchema = record.MustSchema(
	record.Field{Name: "x", Kind: record.Int16},
	record.Field{Name: "y", Kind: record.Int32},
	record.Field{Name: "z", Kind: record.Int64},
	record.Field{Name: "a", Kind: record.Uint64},
	record.Field{Name: "b", Kind: record.Float32},
	record.Field{Name: "c", Kind: record.Float64},
	record.Field{Name: "d", Kind: record.Bool},
	record.Field{Name: "s", Kind: record.String},
)

// makeFull returns the i-th test record for fullSchema.
func makeFull(t *testing.T, i int) *record.Dynamic {
	t.Helper()
	rec := record.NewDynamic(fullSchema)
	err := rec.SetValues([]record.Value{
		record.Int16Value(int16(i)),
		record.Int32Value(int32(-2 * i)),
		record.Int64Value(int64(4 * i)),
		record.Uint64Value(uint64(8 * i)),
		record.Float32Value(0.23126121 * float32(i)),
		record.Float64Value(-42.53425 * float64(i)),
		record.BoolValue(i%2 != 0),
		record.StringValue(fmt.Sprintf("row %d", i)),
	})
	if err != nil {
		t.Fatalf("SetValues failed: %v", err)
	}
	return rec
}

func makePoint(t *testing.T, x int16, b float32) *record.Dynamic {
	t.Helper()
	rec := record.NewDynamic(pointSchema)
	if err := rec.SetValues([]record.Value{record.Int16Value(x), record.Float32Value(b)}); err != nil {
		t.Fatalf("SetValues failed: %v", err)
	}
	return rec
}

func TestWriterOutput(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, pointSchema, Options{})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if err := w.Append(makePoint(t, 1, 1.5)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Append(makePoint(t, 2, 2.5)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	want := "x,b\n1,1.5\n2,2.5\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if w.Count() != 2 {
		t.Errorf("Count() = %d, want 2", w.Count())
	}
}

func TestWriterPrecision(t *testing.T) {
	var buf bytes.Buffer
	schema := record.MustSchema(record.Field{Name: "v", Kind: record.Float64})
	w, err := NewWriter(&buf, schema, Options{Precision: 3})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	rec := record.NewDynamic(schema)
	if err := rec.SetValues([]record.Value{record.Float64Value(0.23126121)}); err != nil {
		t.Fatal(err)
	}
	if err := w.Append(rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	want := "v\n0.231\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestWriterRejectsMismatchedRecord(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, pointSchema, Options{})
	if err != nil {
		t.Fatal(err)
	}

	other := record.NewDynamic(fullSchema)
	if err := w.Append(other); err == nil {
		t.Error("Append with wrong schema succeeded, want error")
	}
}

func TestReaderScenario(t *testing.T) {
	in := strings.NewReader("x,b\n1,1.5\n2,2.5\n")
	r, err := NewReader(in, pointSchema, Options{})
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	rec := record.NewDynamic(pointSchema)

	if err := r.Read(rec); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := rec.At(0).Int(); got != 1 {
		t.Errorf("record 1 x = %d, want 1", got)
	}
	if got := rec.At(1).Float(); got != 1.5 {
		t.Errorf("record 1 b = %v, want 1.5", got)
	}

	if err := r.Read(rec); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := rec.At(0).Int(); got != 2 {
		t.Errorf("record 2 x = %d, want 2", got)
	}

	if err := r.Read(rec); !errors.Is(err, io.EOF) {
		t.Errorf("Read past end = %v, want io.EOF", err)
	}
	if got := r.NumRecords(); got != 2 {
		t.Errorf("NumRecords() = %d, want 2", got)
	}
	if got := r.NumExtraColumns(); got != 0 {
		t.Errorf("NumExtraColumns() = %d, want 0", got)
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	const n = 100

	for name, opts := range map[string]Options{
		"csv": {Delimiter: Comma},
		"tsv": {Delimiter: Tab},
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, fullSchema, opts)
			if err != nil {
				t.Fatalf("NewWriter failed: %v", err)
			}
			for i := 0; i < n; i++ {
				if err := w.Append(makeFull(t, i)); err != nil {
					t.Fatalf("Append %d failed: %v", i, err)
				}
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			r, err := NewReader(&buf, fullSchema, opts)
			if err != nil {
				t.Fatalf("NewReader failed: %v", err)
			}
			got := record.NewDynamic(fullSchema)
			for i := 0; i < n; i++ {
				if err := r.Read(got); err != nil {
					t.Fatalf("Read %d failed: %v", i, err)
				}
				want := makeFull(t, i)
				for f := 0; f < fullSchema.Len(); f++ {
					if got.At(f) != want.At(f) {
						t.Fatalf("record %d field %s = %v, want %v",
							i, fullSchema.Field(f).Name, got.At(f), want.At(f))
					}
				}
			}
			if err := r.Read(got); !errors.Is(err, io.EOF) {
				t.Errorf("Read past end = %v, want io.EOF", err)
			}
		})
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")

	w, err := CreateCSV(path, pointSchema)
	if err != nil {
		t.Fatalf("CreateCSV failed: %v", err)
	}
	if err := w.Append(makePoint(t, 7, 0.5)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}

	r, err := OpenCSV(path, pointSchema)
	if err != nil {
		t.Fatalf("OpenCSV failed: %v", err)
	}
	defer r.Close()

	rec := record.NewDynamic(pointSchema)
	if err := r.Read(rec); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if rec.At(0).Int() != 7 || rec.At(1).Float() != 0.5 {
		t.Errorf("record = (%v, %v), want (7, 0.5)", rec.At(0), rec.At(1))
	}
}

func TestReaderReorderedColumns(t *testing.T) {
	// Same fields, columns swapped relative to the schema.
	in := strings.NewReader("b,x\n1.5,1\n")
	r, err := NewReader(in, pointSchema, Options{})
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	rec := record.NewDynamic(pointSchema)
	if err := r.Read(rec); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if rec.At(0).Int() != 1 || rec.At(1).Float() != 1.5 {
		t.Errorf("record = (%v, %v), want (1, 1.5)", rec.At(0), rec.At(1))
	}
}

func TestReaderExtraColumns(t *testing.T) {
	in := strings.NewReader("n0,x,b,n1\n10,1,1.5,11\n20,2,2.5,21\n")
	r, err := NewReader(in, pointSchema, Options{})
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	if got := r.NumExtraColumns(); got != 2 {
		t.Fatalf("NumExtraColumns() = %d, want 2", got)
	}

	rec := record.NewDynamic(pointSchema)
	var extras []record.Value

	extras, err = r.ReadExtra(rec, record.Int32, extras)
	if err != nil {
		t.Fatalf("ReadExtra failed: %v", err)
	}
	if rec.At(0).Int() != 1 || rec.At(1).Float() != 1.5 {
		t.Errorf("record = (%v, %v), want (1, 1.5)", rec.At(0), rec.At(1))
	}
	if len(extras) != 2 || extras[0].Int() != 10 || extras[1].Int() != 11 {
		t.Errorf("extras = %v, want [10 11]", extras)
	}

	// Plain Read ignores the extra columns.
	if err := r.Read(rec); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if rec.At(0).Int() != 2 {
		t.Errorf("record x = %v, want 2", rec.At(0))
	}
}

func TestReaderMissingColumn(t *testing.T) {
	in := strings.NewReader("x\n1\n")
	_, err := NewReader(in, pointSchema, Options{})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("NewReader = %v, want ErrMissingColumn", err)
	}

	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error is not a *FormatError: %v", err)
	}
	if fe.Line != 1 || fe.Name != "b" {
		t.Errorf("FormatError = line %d name %q, want line 1 name b", fe.Line, fe.Name)
	}
}

func TestReaderColumnCountMismatch(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want error
	}{
		{"too few", "1", ErrTooFewColumns},
		{"too many", "1,1.5,9", ErrTooManyColumns},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := strings.NewReader("x,b\n1,1.5\n" + tt.row + "\n")
			r, err := NewReader(in, pointSchema, Options{})
			if err != nil {
				t.Fatalf("NewReader failed: %v", err)
			}

			rec := record.NewDynamic(pointSchema)
			if err := r.Read(rec); err != nil {
				t.Fatalf("Read failed: %v", err)
			}

			err = r.Read(rec)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Read = %v, want %v", err, tt.want)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("error is not a *FormatError: %v", err)
			}
			if fe.Line != 3 {
				t.Errorf("FormatError.Line = %d, want 3", fe.Line)
			}
		})
	}
}

func TestReaderBadValue(t *testing.T) {
	in := strings.NewReader("x,b\n1,notafloat\n")
	r, err := NewReader(in, pointSchema, Options{})
	if err != nil {
		t.Fatal(err)
	}

	rec := record.NewDynamic(pointSchema)
	err = r.Read(rec)
	if err == nil {
		t.Fatal("Read with bad value succeeded, want error")
	}

	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error is not a *FormatError: %v", err)
	}
	if fe.Line != 2 || fe.Column != 2 || fe.Name != "b" {
		t.Errorf("FormatError = line %d column %d name %q, want line 2 column 2 name b",
			fe.Line, fe.Column, fe.Name)
	}
}

func TestReaderTrustHeader(t *testing.T) {
	// Header names are not checked; columns map to the schema in order.
	in := strings.NewReader("foo,bar\n1,1.5\n")
	r, err := NewReader(in, pointSchema, Options{TrustHeader: true})
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	rec := record.NewDynamic(pointSchema)
	if err := r.Read(rec); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if rec.At(0).Int() != 1 || rec.At(1).Float() != 1.5 {
		t.Errorf("record = (%v, %v), want (1, 1.5)", rec.At(0), rec.At(1))
	}

	// Row shape is still enforced against the schema length.
	in = strings.NewReader("foo,bar\n1,1.5,2\n")
	r, err = NewReader(in, pointSchema, Options{TrustHeader: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Read(rec); !errors.Is(err, ErrTooManyColumns) {
		t.Errorf("Read = %v, want ErrTooManyColumns", err)
	}
}

func TestReaderEmptyInput(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), pointSchema, Options{})
	if !errors.Is(err, ErrEmptyHeader) {
		t.Errorf("NewReader on empty input = %v, want ErrEmptyHeader", err)
	}
}

func TestReaderCRLF(t *testing.T) {
	in := strings.NewReader("x,b\r\n1,1.5\r\n")
	r, err := NewReader(in, pointSchema, Options{})
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	rec := record.NewDynamic(pointSchema)
	if err := r.Read(rec); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if rec.At(1).Float() != 1.5 {
		t.Errorf("b = %v, want 1.5", rec.At(1))
	}
}

func TestHeaderOnlyFile(t *testing.T) {
	r, err := NewReader(strings.NewReader("x,b\n"), pointSchema, Options{})
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	rec := record.NewDynamic(pointSchema)
	if err := r.Read(rec); !errors.Is(err, io.EOF) {
		t.Errorf("Read = %v, want io.EOF", err)
	}
	if r.NumRecords() != 0 {
		t.Errorf("NumRecords() = %d, want 0", r.NumRecords())
	}
}
