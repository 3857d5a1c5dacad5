package receipt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Timeout = 30 * time.Second

// S3API is the subset of the S3 client used by S3Storage
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage implements the Storage interface using an S3 bucket
type S3Storage struct {
	client S3API
	bucket string
}

// NewS3Storage creates a new S3Storage for a bucket
func NewS3Storage(cfg aws.Config, bucket string) *S3Storage {
	return NewS3StorageWithClient(s3.NewFromConfig(cfg), bucket)
}

// NewS3StorageWithClient creates a new S3Storage with a custom client for testing
func NewS3StorageWithClient(client S3API, bucket string) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: bucket,
	}
}

// Bucket returns the name of the bucket objects are stored in
func (s *S3Storage) Bucket() string {
	return s.bucket
}

// Save uploads an object
func (s *S3Storage) Save(key string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s3Timeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("putting object: %w", err)
	}
	return key, nil
}

// Get downloads an object
func (s *S3Storage) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s3Timeout)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

// Delete removes an object
func (s *S3Storage) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s3Timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}
