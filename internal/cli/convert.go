package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nharbeck/rowio/internal/logctx"
	"github.com/nharbeck/rowio/pkg/dataset"
	"github.com/nharbeck/rowio/pkg/dsv"
	"github.com/nharbeck/rowio/pkg/logging"
	"github.com/nharbeck/rowio/pkg/objfetch"
	"github.com/nharbeck/rowio/pkg/record"
)

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	schemaSpec := fs.String("schema", "", `record schema, e.g. "x:i2,y:i4,b:f4"`)
	inFormat := fs.String("in", "csv", "input format: csv or tsv")
	outDir := fs.String("out-dir", "", "output directory for the dataset")
	name := fs.String("name", "", "base name for dataset files")
	formatList := fs.String("formats", "", "output formats, e.g. csv,npy,parquet")
	precision := fs.Int("precision", 0, "significant digits for text floats (0 = shortest)")
	noVerify := fs.Bool("no-verify", false, "skip manifest verification after close")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *schemaSpec == "" {
		return errors.New("-schema is required")
	}
	if *outDir == "" {
		return errors.New("-out-dir is required")
	}
	if *name == "" {
		return errors.New("-name is required")
	}
	if *formatList == "" {
		return errors.New("-formats is required")
	}
	inputs := fs.Args()
	if len(inputs) == 0 {
		return errors.New("at least one input file is required")
	}

	schema, err := record.ParseSchema(*schemaSpec)
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}
	formats, err := dataset.ParseFormats(*formatList)
	if err != nil {
		return err
	}
	delim, err := inputDelimiter(*inFormat)
	if err != nil {
		return err
	}

	log := logctx.DefaultLogger()
	ctx := logctx.WithStr(logctx.WithLogger(context.Background(), log), "phase", "convert")

	out, err := dataset.Create(*outDir, *name, schema, formats, dataset.Options{Precision: *precision})
	if err != nil {
		return err
	}

	conv := &converter{
		schema: schema,
		opts:   dsv.Options{Delimiter: delim},
	}

	start := time.Now()
	for _, path := range inputs {
		fileStart := time.Now()
		n, err := conv.convertFile(ctx, path, out)
		if err != nil {
			out.Discard()
			return err
		}
		log.Debug().
			Str("input", path).
			Uint64("records", n).
			Int64("duration_ms", time.Since(fileStart).Milliseconds()).
			Msg("input converted")
	}

	if err := out.Close(); err != nil {
		return err
	}

	if !*noVerify {
		manifest, err := dataset.ReadManifest(*outDir)
		if err != nil {
			return fmt.Errorf("verify dataset: %w", err)
		}
		if err := dataset.VerifyManifest(*outDir, manifest); err != nil {
			return fmt.Errorf("verify dataset: %w", err)
		}
	}

	logging.PhaseComplete(log, "convert", time.Since(start)).
		Int("inputs", len(inputs)).
		CountUint64("records", out.Count()).
		Str("dir", out.Dir()).
		Log("conversion finished")

	return nil
}

// converter reads delimited inputs and feeds a dataset writer. The
// object fetch client is created on first use so purely local runs
// never touch AWS configuration.
type converter struct {
	schema record.Schema
	opts   dsv.Options
	client *objfetch.Client
}

// open opens a local path or s3:// URI, decompressing .gz transparently.
func (c *converter) open(ctx context.Context, path string) (io.ReadCloser, error) {
	if objfetch.IsURI(path) {
		if c.client == nil {
			client, err := objfetch.NewClient(ctx)
			if err != nil {
				return nil, err
			}
			c.client = client
		}
		return c.client.Open(ctx, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return objfetch.NewStream(f, path)
}

func (c *converter) convertFile(ctx context.Context, path string, out *dataset.Writer) (uint64, error) {
	in, err := c.open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	r, err := dsv.NewReader(in, c.schema, c.opts)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}

	rec := record.NewDynamic(c.schema)
	var n uint64
	for {
		if err := r.Read(rec); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("read %s: %w", path, err)
		}
		if err := out.Append(rec); err != nil {
			return n, err
		}
		n++
	}
}
