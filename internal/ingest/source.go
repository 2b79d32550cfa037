package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/meiro/showads-connector/internal/config"
)

// Open resolves an input path to a readable stream. Paths of the form
// s3://bucket/key are fetched from S3; anything else is opened as a
// local file. The caller closes the returned stream.
func Open(ctx context.Context, path string, cfg config.IngestConfig) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "s3://") {
		return openS3(ctx, path, cfg)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	return f, nil
}

type s3Object struct {
	io.Reader
	body io.Closer
}

func (o *s3Object) Close() error { return o.body.Close() }

func openS3(ctx context.Context, rawPath string, cfg config.IngestConfig) (io.ReadCloser, error) {
	bucket, key, err := splitS3Path(rawPath)
	if err != nil {
		return nil, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}

	return &s3Object{Reader: bufio.NewReaderSize(out.Body, 256*1024), body: out.Body}, nil
}

func splitS3Path(raw string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(raw, "s3://")
	i := strings.Index(rest, "/")
	if i <= 0 || i == len(rest)-1 {
		return "", "", fmt.Errorf("invalid S3 path %q, want s3://bucket/key", raw)
	}
	return rest[:i], rest[i+1:], nil
}
