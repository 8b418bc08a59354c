package objfetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DownloaderConfig tunes the parallel range downloader.
type DownloaderConfig struct {
	// Concurrency is the number of part downloads in flight per object.
	Concurrency int

	// PartSize is the byte range fetched per request. Larger parts use
	// more memory per object in flight.
	PartSize int64

	// TempDir holds spill files for DownloadToReader. Empty means
	// os.TempDir().
	TempDir string
}

// DefaultDownloaderConfig sizes the downloader for the current machine:
// one part per CPU clamped to [4, 16], with 16 MiB parts.
func DefaultDownloaderConfig() DownloaderConfig {
	return DownloaderConfig{
		Concurrency: min(max(runtime.NumCPU(), 4), 16),
		PartSize:    16 << 20,
	}
}

// Downloader fetches objects with the AWS download manager, which
// splits each object into concurrent ranged GETs.
type Downloader struct {
	manager *manager.Downloader
	cfg     DownloaderConfig
}

// NewDownloader wraps an S3 client. Zero config fields take defaults.
func NewDownloader(s3Client *s3.Client, cfg DownloaderConfig) *Downloader {
	def := DefaultDownloaderConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.PartSize <= 0 {
		cfg.PartSize = def.PartSize
	}

	mgr := manager.NewDownloader(s3Client, func(d *manager.Downloader) {
		d.Concurrency = cfg.Concurrency
		d.PartSize = cfg.PartSize
		d.BufferProvider = manager.NewPooledBufferedWriterReadFromProvider(int(cfg.PartSize))
	})

	return &Downloader{manager: mgr, cfg: cfg}
}

// Config returns the effective configuration.
func (d *Downloader) Config() DownloaderConfig {
	return d.cfg
}

// DownloadResult reports a finished transfer.
type DownloadResult struct {
	BytesDownloaded int64
	Duration        time.Duration
	Concurrency     int
	PartSize        int64
}

func (d *Downloader) result(n int64, start time.Time) *DownloadResult {
	return &DownloadResult{
		BytesDownloaded: n,
		Duration:        time.Since(start),
		Concurrency:     d.cfg.Concurrency,
		PartSize:        d.cfg.PartSize,
	}
}

// fetch runs one managed download into w.
func (d *Downloader) fetch(ctx context.Context, w io.WriterAt, bucket, key string) (int64, error) {
	n, err := d.manager.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	return n, nil
}

// DownloadToReader fetches an object into a spill file and returns a
// reader over it; the file is deleted when the reader closes. The
// reader also implements io.ReaderAt and Size, so it can back formats
// that need random access, such as parquet.
func (d *Downloader) DownloadToReader(ctx context.Context, bucket, key string) (io.ReadCloser, *DownloadResult, error) {
	start := time.Now()

	dir := d.cfg.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "objfetch-*.tmp")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp file: %w", err)
	}

	n, err := d.fetch(ctx, f, bucket, key)
	if err == nil {
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			err = fmt.Errorf("seek temp file: %w", serr)
		}
	}
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, nil, err
	}

	return &spillReader{file: f, path: f.Name()}, d.result(n, start), nil
}

// DownloadToFile fetches an object to destPath, removing the partial
// file on failure.
func (d *Downloader) DownloadToFile(ctx context.Context, bucket, key, destPath string) (*DownloadResult, error) {
	start := time.Now()

	f, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create destination file: %w", err)
	}
	defer f.Close()

	n, err := d.fetch(ctx, f, bucket, key)
	if err != nil {
		os.Remove(destPath)
		return nil, err
	}
	return d.result(n, start), nil
}

// spillReader reads a downloaded temp file and deletes it on close.
type spillReader struct {
	file *os.File
	path string
}

func (r *spillReader) Read(p []byte) (int, error) {
	n, err := r.file.Read(p)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read temp file: %w", err)
	}
	return n, err
}

// ReadAt serves random access without disturbing the read offset.
func (r *spillReader) ReadAt(p []byte, off int64) (int, error) {
	n, err := r.file.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read temp file at offset %d: %w", off, err)
	}
	return n, err
}

// Size returns the spill file size.
func (r *spillReader) Size() (int64, error) {
	info, err := r.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat temp file: %w", err)
	}
	return info.Size(), nil
}

func (r *spillReader) Close() error {
	err := r.file.Close()
	os.Remove(r.path)
	if err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return nil
}
