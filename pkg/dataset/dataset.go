// Package dataset writes one logical record stream to several file
// formats at once. A dataset is a directory holding one file per
// format plus a manifest with sizes and checksums, written when the
// dataset is closed.
package dataset

import (
	"fmt"
	"strings"

	"github.com/nharbeck/rowio/pkg/record"
)

// Format identifies an output file format.
type Format uint8

const (
	FormatCSV Format = iota
	FormatTSV
	FormatNPY
	FormatParquet
)

var formatNames = map[Format]string{
	FormatCSV:     "csv",
	FormatTSV:     "tsv",
	FormatNPY:     "npy",
	FormatParquet: "parquet",
}

// String returns the format name, which is also the file extension.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// ParseFormat converts a name like "csv" or "parquet" to a Format.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if s == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// ParseFormats parses a comma-separated format list such as
// "csv,npy,parquet". Duplicates are rejected.
func ParseFormats(list string) ([]Format, error) {
	if list == "" {
		return nil, fmt.Errorf("empty format list")
	}

	var formats []Format
	seen := make(map[Format]bool)
	for _, name := range strings.Split(list, ",") {
		f, err := ParseFormat(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if seen[f] {
			return nil, fmt.Errorf("duplicate format %q", f)
		}
		seen[f] = true
		formats = append(formats, f)
	}
	return formats, nil
}

// Sink is the writer side of a single output file. The format writers
// in dsv, npy, and parquetio all satisfy it.
type Sink interface {
	Append(rec record.Source) error
	Close() error
}
