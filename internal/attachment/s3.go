package attachment

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store keeps attachments in an S3-compatible bucket (AWS S3 or MinIO).
// Single bucket, keys map to object keys under an optional prefix.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Config holds explicit construction parameters. Credentials fall back to
// the default AWS chain.
type S3Config struct {
	Bucket    string
	Region    string
	Prefix    string
	Endpoint  string // optional, enables custom endpoint (e.g. MinIO)
	PathStyle bool
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Store) Save(ctx context.Context, name, contentType string, r io.Reader) (Ref, error) {
	key := objectKey(name, time.Now().UTC())
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if contentType != "" {
		input.ContentType = &contentType
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put attachment object: %w", err)
	}
	return Ref(key), nil
}

func (s *S3Store) Open(ctx context.Context, ref Ref) (io.ReadCloser, error) {
	key := string(ref)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get attachment object: %w", err)
	}
	return out.Body, nil
}
