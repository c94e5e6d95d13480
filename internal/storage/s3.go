package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultExpiration is how long a presigned document URL stays valid.
const DefaultExpiration = 7 * 24 * time.Hour

// S3Options configures an S3Store. Endpoint is optional and allows S3-compatible
// services such as MinIO or R2.
type S3Options struct {
	Endpoint   string
	Region     string
	Key        string
	Secret     string
	Bucket     string
	Prefix     string
	Expiration time.Duration
}

// S3Store uploads documents to a bucket and returns presigned GET URLs.
type S3Store struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	prefix     string
	expiration time.Duration
}

// NewS3Store creates a store from opts. Key, Secret and Bucket are required.
func NewS3Store(opts S3Options) (*S3Store, error) {
	if opts.Key == "" || opts.Secret == "" {
		return nil, fmt.Errorf("s3 key and secret are required")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if opts.Region == "" {
		opts.Region = "auto"
	}
	if opts.Expiration <= 0 {
		opts.Expiration = DefaultExpiration
	}

	s3opts := s3.Options{
		Region:       opts.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(opts.Key, opts.Secret, ""),
		UsePathStyle: true,
	}
	if opts.Endpoint != "" {
		endpoint := strings.TrimSuffix(strings.TrimRight(opts.Endpoint, "/"), "/"+opts.Bucket)
		s3opts.BaseEndpoint = aws.String(endpoint)
	}

	client := s3.New(s3opts)
	return &S3Store{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     opts.Bucket,
		prefix:     strings.Trim(opts.Prefix, "/"),
		expiration: opts.Expiration,
	}, nil
}

// Put implements DocumentStore.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	objectKey := s.objectKey(key)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload document %s: %w", objectKey, err)
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.expiration))
	if err != nil {
		return "", fmt.Errorf("presign document %s: %w", objectKey, err)
	}
	return req.URL, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}
