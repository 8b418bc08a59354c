package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nharbeck/rowio/pkg/npy"
)

// stdout is the default output stream for printing subcommands.
var stdout io.Writer = os.Stdout

func runDescribe(args []string) error {
	return describe(args, stdout)
}

func describe(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("describe", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one npy file is required")
	}

	path := fs.Arg(0)
	info, err := npy.Inspect(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "file:    %s\n", path)
	fmt.Fprintf(w, "records: %d\n", info.Count)
	if schema, err := info.Schema(); err == nil {
		fmt.Fprintf(w, "schema:  %s\n", schema)
	}
	fmt.Fprintf(w, "fields:\n")
	for _, f := range info.Fields {
		fmt.Fprintf(w, "  %-16s %s\n", f.Name, f.Code)
	}

	return nil
}
