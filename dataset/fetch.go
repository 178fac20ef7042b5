package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrUnsupportedScheme is returned for remote URLs with any scheme other
// than s3://.
var ErrUnsupportedScheme = errors.New("only s3:// urls are supported")

// BlobFetcher retrieves raw bytes for a remote URL.
type BlobFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// S3API is the slice of the S3 client used by S3Fetcher.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher implements BlobFetcher for s3:// URLs.
type S3Fetcher struct {
	client S3API
}

// NewS3Fetcher creates a fetcher using the ambient AWS configuration. A
// runtime environment without usable AWS configuration is a hard failure.
func NewS3Fetcher(ctx context.Context) (*S3Fetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("aws configuration is required for retrieving s3 objects: %w", err)
	}
	return &S3Fetcher{client: s3.NewFromConfig(cfg)}, nil
}

// NewS3FetcherWithClient creates a fetcher over a caller-supplied client.
func NewS3FetcherWithClient(client S3API) *S3Fetcher {
	return &S3Fetcher{client: client}
}

// Fetch retrieves the object at an s3:// URL. Any other scheme fails with
// ErrUnsupportedScheme.
func (f *S3Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	rawURL = strings.TrimSpace(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "s3" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, rawURL)
	}

	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
