package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/nharbeck/rowio/internal/logctx"
	"github.com/nharbeck/rowio/pkg/dsv"
	"github.com/nharbeck/rowio/pkg/record"
)

func runHead(args []string) error {
	return head(args, stdout)
}

func head(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("head", flag.ContinueOnError)
	schemaSpec := fs.String("schema", "", `record schema, e.g. "x:i2,y:i4,b:f4"`)
	inFormat := fs.String("in", "csv", "input format: csv or tsv")
	n := fs.Int("n", 10, "number of records to print")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *schemaSpec == "" {
		return errors.New("-schema is required")
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one input file is required")
	}
	if *n <= 0 {
		return errors.New("-n must be positive")
	}

	schema, err := record.ParseSchema(*schemaSpec)
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}
	delim, err := inputDelimiter(*inFormat)
	if err != nil {
		return err
	}

	path := fs.Arg(0)
	conv := &converter{schema: schema, opts: dsv.Options{Delimiter: delim}}
	ctx := logctx.WithLogger(context.Background(), logctx.DefaultLogger())

	in, err := conv.open(ctx, path)
	if err != nil {
		return err
	}
	defer in.Close()

	r, err := dsv.NewReader(in, schema, dsv.Options{Delimiter: delim})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	table, err := dsv.NewTableWriter(w, schema, dsv.Options{})
	if err != nil {
		return err
	}

	rec := record.NewDynamic(schema)
	for i := 0; i < *n; i++ {
		if err := r.Read(rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read %s: %w", path, err)
		}
		if err := table.Append(rec); err != nil {
			return err
		}
	}

	return table.Close()
}
