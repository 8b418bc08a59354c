package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/nharbeck/rowio/internal/logctx"
	"github.com/nharbeck/rowio/pkg/objfetch"
)

func runFetch(args []string) error {
	return fetch(args, stdout)
}

func fetch(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	dir := fs.String("dir", ".", "directory to download objects into")
	concurrency := fs.Int("concurrency", 4, "number of parallel downloads")
	resume := fs.Bool("resume", false, "skip objects already present locally")

	if err := fs.Parse(args); err != nil {
		return err
	}
	uris := fs.Args()
	if len(uris) == 0 {
		return errors.New("at least one s3:// URI is required")
	}
	for _, uri := range uris {
		if !objfetch.IsURI(uri) {
			return fmt.Errorf("not an s3:// URI: %s", uri)
		}
	}

	log := logctx.DefaultLogger()
	ctx := logctx.WithStr(logctx.WithLogger(context.Background(), log), "phase", "fetch")

	client, err := objfetch.NewClient(ctx)
	if err != nil {
		return err
	}
	fetcher := objfetch.NewFetcher(client, objfetch.FetchConfig{
		DownloadDir: *dir,
		Concurrency: *concurrency,
		KeepFiles:   true,
		Resume:      *resume,
	})

	paths, err := fetcher.FetchAll(ctx, uris)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	return nil
}
