package dataset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nharbeck/rowio/pkg/dsv"
	"github.com/nharbeck/rowio/pkg/npy"
	"github.com/nharbeck/rowio/pkg/parquetio"
	"github.com/nharbeck/rowio/pkg/record"
)

var pointSchema = record.MustSchema([]record.Field{
	{Name: "x", Kind: record.Int16},
	{Name: "b", Kind: record.Float32},
}...)

func makePoint(t *testing.T, i int) *record.Dynamic {
	t.Helper()
	rec := record.NewDynamic(pointSchema)
	err := rec.SetValues([]record.Value{
		record.Int16Value(int16(i)),
		record.Float32Value(float32(i) + 0.5),
	})
	if err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	return rec
}

func allFormats() []Format {
	return []Format{FormatCSV, FormatTSV, FormatNPY, FormatParquet}
}

func TestCreateAndClose(t *testing.T) {
	dir := t.TempDir()

	const n = 3
	w, err := Create(dir, "points", pointSchema, allFormats(), Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 1; i <= n; i++ {
		if err := w.Append(makePoint(t, i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	if got := w.Count(); got != n {
		t.Errorf("Count() = %d, want %d", got, n)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	wantFiles := []string{"points.csv", "points.tsv", "points.npy", "points.parquet"}
	for _, base := range wantFiles {
		if _, err := os.Stat(filepath.Join(dir, base)); err != nil {
			t.Errorf("missing data file %s: %v", base, err)
		}
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if manifest.Version != ManifestVersion {
		t.Errorf("manifest version = %d, want %d", manifest.Version, ManifestVersion)
	}
	if manifest.Name != "points" {
		t.Errorf("manifest name = %q, want %q", manifest.Name, "points")
	}
	if manifest.Records != n {
		t.Errorf("manifest records = %d, want %d", manifest.Records, n)
	}
	if len(manifest.Files) != len(wantFiles) {
		t.Errorf("manifest files = %d, want %d", len(manifest.Files), len(wantFiles))
	}
	for name, info := range manifest.Files {
		if info.Size <= 0 {
			t.Errorf("file %s has size %d", name, info.Size)
		}
		if len(info.Checksum) != 64 {
			t.Errorf("file %s has checksum %q", name, info.Checksum)
		}
	}

	schema, err := manifest.RecordSchema()
	if err != nil {
		t.Fatalf("RecordSchema: %v", err)
	}
	if !schema.Equal(pointSchema) {
		t.Errorf("manifest schema = %q", manifest.Schema)
	}

	if err := VerifyManifest(dir, manifest); err != nil {
		t.Errorf("VerifyManifest: %v", err)
	}
}

// checkPoints reads n records and compares them against makePoint.
func checkPoints(t *testing.T, name string, read func(rec record.Target) error, n int) {
	t.Helper()
	rec := record.NewDynamic(pointSchema)
	for i := 1; i <= n; i++ {
		if err := read(rec); err != nil {
			t.Fatalf("%s: read record %d: %v", name, i, err)
		}
		want := makePoint(t, i)
		for j, got := range rec.Values() {
			if got != want.Values()[j] {
				t.Fatalf("%s: record %d field %d = %v, want %v", name, i, j, got, want.Values()[j])
			}
		}
	}
	if err := read(rec); !errors.Is(err, io.EOF) {
		t.Errorf("%s: read past end = %v, want io.EOF", name, err)
	}
}

func TestSinksAgree(t *testing.T) {
	dir := t.TempDir()

	const n = 25
	w, err := Create(dir, "points", pointSchema, allFormats(), Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 1; i <= n; i++ {
		if err := w.Append(makePoint(t, i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	csvR, err := dsv.OpenCSV(filepath.Join(dir, "points.csv"), pointSchema)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer csvR.Close()
	checkPoints(t, "csv", csvR.Read, n)

	tsvR, err := dsv.OpenTSV(filepath.Join(dir, "points.tsv"), pointSchema)
	if err != nil {
		t.Fatalf("OpenTSV: %v", err)
	}
	defer tsvR.Close()
	checkPoints(t, "tsv", tsvR.Read, n)

	npyR, err := npy.Open(filepath.Join(dir, "points.npy"), pointSchema)
	if err != nil {
		t.Fatalf("npy.Open: %v", err)
	}
	defer npyR.Close()
	checkPoints(t, "npy", npyR.Read, n)

	pqR, err := parquetio.Open(filepath.Join(dir, "points.parquet"), pointSchema)
	if err != nil {
		t.Fatalf("parquetio.Open: %v", err)
	}
	defer pqR.Close()
	checkPoints(t, "parquet", pqR.Read, n)
}

func TestVerifyManifestDetectsTampering(t *testing.T) {
	dir := t.TempDir()

	w, err := Create(dir, "points", pointSchema, []Format{FormatCSV}, Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Append(makePoint(t, 1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}

	path := filepath.Join(dir, "points.csv")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("9,9.9\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	err = VerifyManifest(dir, manifest)
	if err == nil {
		t.Fatal("VerifyManifest passed on a tampered file")
	}
	if !strings.Contains(err.Error(), "points.csv") {
		t.Errorf("error %q does not name the tampered file", err)
	}
}

func TestCreateCleansStaleTmpFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "points.npy.tmp")
	if err := os.WriteFile(stale, []byte("leftover"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := Create(dir, "points", pointSchema, []Format{FormatCSV}, Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale tmp file still present: %v", err)
	}
}

func TestCreateRejectsBadArguments(t *testing.T) {
	dir := t.TempDir()

	if _, err := Create(dir, "", pointSchema, []Format{FormatCSV}, Options{}); err == nil {
		t.Error("Create accepted an empty name")
	}
	if _, err := Create(dir, "points", pointSchema, nil, Options{}); err == nil {
		t.Error("Create accepted an empty format list")
	}
	if _, err := Create(dir, "points", pointSchema, []Format{FormatCSV, FormatCSV}, Options{}); err == nil {
		t.Error("Create accepted duplicate formats")
	}
}

func TestCreateDiscardsOnSinkError(t *testing.T) {
	dir := t.TempDir()

	// String columns have no binary array representation, so the npy
	// sink must fail and the csv file opened before it must be removed.
	schema := record.MustSchema([]record.Field{
		{Name: "name", Kind: record.String},
	}...)
	if _, err := Create(dir, "names", schema, []Format{FormatCSV, FormatNPY}, Options{}); err == nil {
		t.Fatal("Create succeeded with a string column and an npy sink")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("dataset dir not empty after failed create: %v", entries)
	}
}

func TestDiscardRemovesFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := Create(dir, "points", pointSchema, allFormats(), Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 1; i <= 2; i++ {
		if err := w.Append(makePoint(t, i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	w.Discard()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("dataset dir not empty after Discard: %v", entries)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close after Discard: %v", err)
	}
	if _, err := ReadManifest(dir); err == nil {
		t.Error("expected no manifest after Discard")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		list    string
		want    []Format
		wantErr bool
	}{
		{list: "csv", want: []Format{FormatCSV}},
		{list: "csv,npy,parquet", want: []Format{FormatCSV, FormatNPY, FormatParquet}},
		{list: " tsv , csv ", want: []Format{FormatTSV, FormatCSV}},
		{list: "", wantErr: true},
		{list: "bogus", wantErr: true},
		{list: "csv,csv", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormats(tt.list)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormats(%q) succeeded, want error", tt.list)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormats(%q): %v", tt.list, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParseFormats(%q) = %v, want %v", tt.list, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseFormats(%q)[%d] = %v, want %v", tt.list, i, got[i], tt.want[i])
			}
		}
	}
}

func TestFormatString(t *testing.T) {
	if got := FormatParquet.String(); got != "parquet" {
		t.Errorf("FormatParquet.String() = %q", got)
	}
	if got := Format(9).String(); got != "Format(9)" {
		t.Errorf("Format(9).String() = %q", got)
	}
}
