// Package cli implements the command-line interface for rowio.
package cli

import (
	"errors"
	"flag"
	"fmt"

	"github.com/nharbeck/rowio/internal/logctx"
	"github.com/nharbeck/rowio/pkg/dsv"
	"github.com/nharbeck/rowio/pkg/logging"
)

const usage = "usage: rowio [-debug] [-human] <command> [options]\ncommands: fetch, convert, head, describe"

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	fs := flag.NewFlagSet("rowio", flag.ContinueOnError)
	debug := fs.Bool("debug", false, "enable debug logging")
	human := fs.Bool("human", false, "human-readable console output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	logging.Init(*debug, *human)
	logctx.SetDefaultLogger(logctx.NewConfiguredLogger(*debug, *human))

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New(usage)
	}

	switch rest[0] {
	case "fetch":
		return runFetch(rest[1:])
	case "convert":
		return runConvert(rest[1:])
	case "head":
		return runHead(rest[1:])
	case "describe":
		return runDescribe(rest[1:])
	default:
		return fmt.Errorf("unknown command: %s", rest[0])
	}
}

// inputDelimiter maps the -in flag to a column delimiter.
func inputDelimiter(format string) (byte, error) {
	switch format {
	case "csv":
		return dsv.Comma, nil
	case "tsv":
		return dsv.Tab, nil
	default:
		return 0, fmt.Errorf("unknown input format %q (want csv or tsv)", format)
	}
}
