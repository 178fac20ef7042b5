package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	bucket string
	key    string
	body   []byte
	err    error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = *in.Bucket
	f.key = *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestS3FetcherParsesBucketAndKey(t *testing.T) {
	fake := &fakeS3{body: []byte("hello")}
	fetcher := NewS3FetcherWithClient(fake)

	data, err := fetcher.Fetch(context.Background(), "s3://my-bucket/path/to/object.csv")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	if fake.bucket != "my-bucket" {
		t.Errorf("bucket = %s, want my-bucket", fake.bucket)
	}
	if fake.key != "path/to/object.csv" {
		t.Errorf("key = %s, want path/to/object.csv", fake.key)
	}
	if string(data) != "hello" {
		t.Errorf("data = %q, want hello", data)
	}
}

func TestS3FetcherTrimsWhitespace(t *testing.T) {
	fake := &fakeS3{body: []byte("x")}
	fetcher := NewS3FetcherWithClient(fake)

	if _, err := fetcher.Fetch(context.Background(), "  s3://b/k\n"); err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if fake.bucket != "b" || fake.key != "k" {
		t.Errorf("bucket/key = %s/%s, want b/k", fake.bucket, fake.key)
	}
}

func TestS3FetcherRejectsOtherSchemes(t *testing.T) {
	fetcher := NewS3FetcherWithClient(&fakeS3{})

	for _, rawURL := range []string{"https://bucket/key", "file:///tmp/x", "bucket/key"} {
		_, err := fetcher.Fetch(context.Background(), rawURL)
		if !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("Fetch(%s) err = %v, want ErrUnsupportedScheme", rawURL, err)
		}
	}
}

func TestS3FetcherWrapsClientErrors(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	fetcher := NewS3FetcherWithClient(fake)

	if _, err := fetcher.Fetch(context.Background(), "s3://b/k"); err == nil {
		t.Error("Fetch() should surface client errors")
	}
}
