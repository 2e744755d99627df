package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is the subset of the S3 API the store uses. It exists so tests
// can substitute a fake without a live endpoint.
type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures an [S3] store. Endpoint and PublicBaseURL are distinct
// so uploads can go through an internal address while returned URLs point at
// a CDN or public bucket host.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string

	// PublicBaseURL is prepended to the object key to form the returned
	// URL. When empty, Endpoint/Bucket is used.
	PublicBaseURL string
}

// S3 stores avatar objects in an S3-compatible bucket.
type S3 struct {
	client  s3Client
	bucket  string
	baseURL string
}

// NewS3 describes the news3 operation and its observable behavior.
//
// NewS3 may return an error when input validation, dependency calls, or security checks fail.
func NewS3(cfg S3Config) (*S3, error) {
	if cfg.Endpoint == "" || cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("blob: endpoint, region, and bucket required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("blob: credentials required")
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: true,
		BaseEndpoint: aws.String(cfg.Endpoint),
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &S3{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Put uploads the object and returns its public URL.
func (s *S3) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
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
		return "", fmt.Errorf("blob: put object: %w", err)
	}

	return s.baseURL + "/" + key, nil
}
