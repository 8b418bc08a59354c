package objfetch

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client wraps the AWS S3 client for object retrieval.
type Client struct {
	s3Client *s3.Client
}

// NewClient creates a client using the default AWS configuration chain.
func NewClient(ctx context.Context) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Client{s3Client: s3.NewFromConfig(cfg)}, nil
}

// NewClientWithConfig creates a client from an existing AWS configuration.
func NewClientWithConfig(cfg aws.Config) *Client {
	return &Client{s3Client: s3.NewFromConfig(cfg)}
}

// S3 returns the underlying S3 client.
func (c *Client) S3() *s3.Client {
	return c.s3Client
}

// Stream returns the raw object body. The caller must close it.
func (c *Client) Stream(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	resp, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	return resp.Body, nil
}

// Open streams the object named by uri, decompressing gzip objects
// transparently. The caller must close the returned reader.
func (c *Client) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	body, err := c.Stream(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	return NewStream(body, key)
}

// Download fetches the object named by uri to a local path.
func (c *Client) Download(ctx context.Context, uri, destPath string) error {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return err
	}
	return c.DownloadFile(ctx, bucket, key, destPath)
}

// DownloadFile fetches an object to a local path in a single stream.
// For large objects prefer Downloader, which fetches parts concurrently.
func (c *Client) DownloadFile(ctx context.Context, bucket, key, destPath string) error {
	body, err := c.Stream(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer body.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create file %s: %w", destPath, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(destPath)
		return fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("close file %s: %w", destPath, err)
	}

	return nil
}
