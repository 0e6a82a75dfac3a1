package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/spec-kit/event-gallery/internal/config"
)

// S3 stores objects in an S3-compatible bucket.
type S3 struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3 builds a client from static credentials. A custom endpoint targets
// S3-compatible services such as MinIO.
func NewS3(cfg config.StorageConfig) *S3 {
	opts := s3.Options{
		Region:       cfg.S3Region,
		UsePathStyle: cfg.S3PathStyle,
	}
	if cfg.S3AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}
	if cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
	}

	return &S3{
		client:  s3.New(opts),
		bucket:  cfg.S3Bucket,
		baseURL: objectBaseURL(cfg),
	}
}

func objectBaseURL(cfg config.StorageConfig) string {
	endpoint := strings.TrimRight(cfg.S3Endpoint, "/")
	switch {
	case endpoint != "" && cfg.S3PathStyle:
		return endpoint + "/" + cfg.S3Bucket
	case endpoint != "":
		scheme, host, found := strings.Cut(endpoint, "://")
		if !found {
			return "https://" + cfg.S3Bucket + "." + endpoint
		}
		return scheme + "://" + cfg.S3Bucket + "." + host
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
}

func (s *S3) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *S3) Owns(fileURL string) bool {
	_, ok := keyFromURL(s.baseURL, fileURL)
	return ok
}

func (s *S3) Delete(ctx context.Context, fileURL string) error {
	key, ok := keyFromURL(s.baseURL, fileURL)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}
