// Command rowio converts schema-typed record files between delimited
// text, npy and parquet representations.
package main

import (
	"fmt"
	"os"

	"github.com/nharbeck/rowio/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
