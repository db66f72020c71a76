package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const keyPrefix = "recipes"

var (
	ErrNotConfigured = errors.New("image storage is not configured")
	ErrForeignURL    = errors.New("url does not belong to the configured bucket")
)

// Options configures the S3 store. Endpoint may point at any S3-compatible
// service (MinIO, GCS interoperability); PublicBaseURL is the prefix under which
// uploaded objects are publicly readable.
type Options struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// objectAPI is the subset of the S3 client used by S3Store.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store uploads compressed recipe images and deletes replaced ones.
type S3Store struct {
	client  objectAPI
	bucket  string
	baseURL string
}

// NewS3Store builds a store from opts. With no bucket configured it returns a
// store whose Configured method reports false.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return &S3Store{}, nil
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, opts), nil
}

func newS3Store(client objectAPI, opts Options) *S3Store {
	baseURL := opts.PublicBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(opts)
	}
	return &S3Store{
		client:  client,
		bucket:  opts.Bucket,
		baseURL: strings.TrimRight(baseURL, "/") + "/",
	}
}

func defaultBaseURL(opts Options) string {
	if opts.Endpoint != "" {
		return strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
}

// Configured reports whether a bucket is available.
func (s *S3Store) Configured() bool {
	return s.client != nil && s.bucket != ""
}

// Upload compresses data and stores it under a fresh key, returning its public URL.
func (s *S3Store) Upload(ctx context.Context, data []byte) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	compressed, err := Compress(data)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s.jpg", keyPrefix, uuid.New())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(compressed),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}

	return s.baseURL + key, nil
}

// Delete removes the object behind url. URLs outside the bucket are rejected.
func (s *S3Store) Delete(ctx context.Context, url string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	key, ok := s.keyFromURL(url)
	if !ok {
		return ErrForeignURL
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	return nil
}

func (s *S3Store) keyFromURL(url string) (string, bool) {
	key, found := strings.CutPrefix(url, s.baseURL)
	if !found || key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
