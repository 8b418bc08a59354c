package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nharbeck/rowio/pkg/dsv"
	"github.com/nharbeck/rowio/pkg/fileutil"
	"github.com/nharbeck/rowio/pkg/logging"
	"github.com/nharbeck/rowio/pkg/npy"
	"github.com/nharbeck/rowio/pkg/parquetio"
	"github.com/nharbeck/rowio/pkg/record"
)

// Options configures dataset creation.
type Options struct {
	// Precision caps the digits used for float columns in the text
	// formats. Zero or negative means shortest round-trip formatting.
	Precision int
}

// Writer fans records out to one file per requested format and seals
// the directory with a manifest on Close.
type Writer struct {
	dir    string
	name   string
	schema record.Schema
	sinks  []Sink
	files  []string // base names, parallel to sinks
	count  uint64
	start  time.Time
	closed bool
}

// Create opens one sink per format under dir. Files are named
// name.<format>. Stale .tmp files from interrupted runs are removed
// first. On error nothing is left behind.
func Create(dir, name string, schema record.Schema, formats []Format, opts Options) (*Writer, error) {
	if name == "" {
		return nil, fmt.Errorf("empty dataset name")
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no output formats")
	}
	seen := make(map[Format]bool, len(formats))
	for _, f := range formats {
		if seen[f] {
			return nil, fmt.Errorf("duplicate format %q", f)
		}
		seen[f] = true
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create dataset dir: %w", err)
	}
	if err := fileutil.CleanupTmpFiles(dir); err != nil {
		return nil, fmt.Errorf("cleanup tmp files: %w", err)
	}

	w := &Writer{
		dir:    dir,
		name:   name,
		schema: schema,
		start:  time.Now(),
	}
	for _, f := range formats {
		base := name + "." + f.String()
		sink, err := openSink(filepath.Join(dir, base), f, schema, opts)
		if err != nil {
			w.discard()
			return nil, fmt.Errorf("create %s sink: %w", f, err)
		}
		w.sinks = append(w.sinks, sink)
		w.files = append(w.files, base)
	}

	logging.L().Debug().
		Str("dir", dir).
		Str("name", name).
		Int("sinks", len(w.sinks)).
		Msg("dataset opened")
	return w, nil
}

func openSink(path string, f Format, schema record.Schema, opts Options) (Sink, error) {
	switch f {
	case FormatCSV:
		return dsv.Create(path, schema, dsv.Options{Delimiter: dsv.Comma, Precision: opts.Precision})
	case FormatTSV:
		return dsv.Create(path, schema, dsv.Options{Delimiter: dsv.Tab, Precision: opts.Precision})
	case FormatNPY:
		return npy.Create(path, schema)
	case FormatParquet:
		return parquetio.Create(path, schema)
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

// discard closes and removes every file opened so far.
func (w *Writer) discard() {
	for i, sink := range w.sinks {
		sink.Close()
		os.Remove(filepath.Join(w.dir, w.files[i]))
	}
	w.sinks = nil
	w.files = nil
}

// Discard closes every sink and removes the files written so far. No
// manifest is written. Discard after Close is a no-op.
func (w *Writer) Discard() {
	if w.closed {
		return
	}
	w.closed = true
	w.discard()
}

// Append writes one record to every sink.
func (w *Writer) Append(rec record.Source) error {
	for i, sink := range w.sinks {
		if err := sink.Append(rec); err != nil {
			return fmt.Errorf("append to %s: %w", w.files[i], err)
		}
	}
	w.count++
	return nil
}

// Count returns the number of records appended so far.
func (w *Writer) Count() uint64 { return w.count }

// Schema returns the schema the dataset encodes.
func (w *Writer) Schema() record.Schema { return w.schema }

// Dir returns the dataset directory.
func (w *Writer) Dir() string { return w.dir }

// Files returns the base names of the data files, in format order.
func (w *Writer) Files() []string {
	out := make([]string, len(w.files))
	copy(out, w.files)
	return out
}

// Close closes every sink and writes the manifest. All sinks are
// closed even if one fails; the first error wins and no manifest is
// written in that case.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var firstErr error
	for i, sink := range w.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", w.files[i], err)
		}
	}
	if firstErr != nil {
		return firstErr
	}

	if err := writeManifest(w.dir, w.name, w.schema, w.count, w.files); err != nil {
		return err
	}

	elapsed := time.Since(w.start)
	log := *logging.L()
	for _, base := range w.files {
		info, err := os.Stat(filepath.Join(w.dir, base))
		if err != nil {
			continue
		}
		logging.FileCreated(log, "dataset", elapsed).
			Str("file", base).
			Bytes("bytes", info.Size()).
			LogDebug("dataset file written")
	}
	logging.PhaseComplete(log, "dataset", elapsed).
		Str("dir", w.dir).
		Str("name", w.name).
		Int("files", len(w.files)).
		CountUint64("records", w.count).
		Log("dataset closed")

	return nil
}
