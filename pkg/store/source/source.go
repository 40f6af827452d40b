package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Opener opens the raw event log for reading.
type Opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Location() string
}

// ObjectGetter is the subset of the S3 client used to fetch the event log.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// New returns an Opener for a local path or an s3://bucket/key URI. S3
// credentials come from the default AWS credential chain.
func New(ctx context.Context, location string) (Opener, error) {
	if location == "" {
		return nil, fmt.Errorf("raw events location is empty")
	}
	if !strings.HasPrefix(location, "s3://") {
		return &fileOpener{path: location}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3(s3.NewFromConfig(cfg), location)
}

func NewS3(client ObjectGetter, location string) (Opener, error) {
	bucket, key, err := ParseS3URI(location)
	if err != nil {
		return nil, err
	}
	return &s3Opener{client: client, bucket: bucket, key: key}, nil
}

// ParseS3URI splits s3://bucket/key into its parts.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", uri, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri %q must include bucket and key", uri)
	}
	return u.Host, key, nil
}

type fileOpener struct {
	path string
}

func (f *fileOpener) Open(_ context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open raw events: %w", err)
	}
	return file, nil
}

func (f *fileOpener) Location() string {
	return f.path
}

type s3Opener struct {
	client ObjectGetter
	bucket string
	key    string
}

func (s *s3Opener) Open(ctx context.Context) (io.ReadCloser, error) {
	zerolog.Ctx(ctx).Info().Str("bucket", s.bucket).Str("key", s.key).Msg("fetching raw events from s3")

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return out.Body, nil
}

func (s *s3Opener) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}
