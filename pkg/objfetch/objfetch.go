// Package objfetch retrieves objects from S3 so record files can be
// read without a prior local copy. Streams are decompressed
// transparently when the object key ends in .gz.
package objfetch

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ParseURI parses an S3 URI (s3://bucket/key) into bucket and key components.
func ParseURI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", errors.New("invalid S3 URI: must start with s3://")
	}

	path := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 1 || parts[0] == "" {
		return "", "", errors.New("invalid S3 URI: missing bucket name")
	}

	bucket = parts[0]
	if len(parts) == 2 {
		key = parts[1]
	}

	return bucket, key, nil
}

// IsURI reports whether path looks like an S3 URI.
func IsURI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// sanitizeFilename converts an object key to a safe local filename.
func sanitizeFilename(key string) string {
	return filepath.Base(key)
}

// stream bundles a reader with the closers behind it.
type stream struct {
	reader  io.Reader
	closers []io.Closer
}

func (s *stream) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Close closes in reverse order (gzip reader before underlying stream).
func (s *stream) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewStream wraps body with gzip decompression when name ends in .gz.
// Closing the returned stream closes body; on gzip setup failure body
// is closed before returning.
func NewStream(body io.ReadCloser, name string) (io.ReadCloser, error) {
	closers := []io.Closer{body}
	var reader io.Reader = body

	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		gzr, err := gzip.NewReader(body)
		if err != nil {
			body.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		closers = append(closers, gzr)
		reader = gzr
	}

	return &stream{reader: reader, closers: closers}, nil
}
