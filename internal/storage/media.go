// Package storage provides S3-backed persistence for uploaded content
// payloads. Content metadata lives in Postgres; only the media bytes go to
// S3, keyed by content id.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MediaStore stores and retrieves media objects for content items.
type MediaStore interface {
	// Put stores the payload and returns the publicly addressable URL.
	Put(ctx context.Context, contentID, filename, contentType string, body io.Reader) (string, error)

	// Get streams a stored object. Callers must close the reader.
	Get(ctx context.Context, contentID, filename string) (io.ReadCloser, error)

	// Presign returns a time-limited download URL for a stored object.
	Presign(ctx context.Context, contentID, filename string, expiry time.Duration) (string, error)

	// Delete removes a stored object.
	Delete(ctx context.Context, contentID, filename string) error
}

// S3MediaStore implements MediaStore against an S3 bucket.
type S3MediaStore struct {
	client    *s3.Client
	bucket    string
	region    string
	urlPrefix string
}

// NewS3MediaStore creates an S3-backed media store. An empty profile uses
// the default credential chain (IAM role on ECS).
func NewS3MediaStore(ctx context.Context, bucket, region, profile, urlPrefix string) (*S3MediaStore, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3MediaStore{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		region:    region,
		urlPrefix: urlPrefix,
	}, nil
}

func mediaKey(contentID, filename string) string {
	return path.Join("media", contentID, filename)
}

// Put uploads the payload under media/<contentID>/<filename>.
func (s *S3MediaStore) Put(ctx context.Context, contentID, filename, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading media body: %w", err)
	}

	key := mediaKey(contentID, filename)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("putting media to S3: %w", err)
	}
	return s.URL(key), nil
}

// Get streams a stored object from S3.
func (s *S3MediaStore) Get(ctx context.Context, contentID, filename string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(mediaKey(contentID, filename)),
	})
	if err != nil {
		return nil, fmt.Errorf("getting media from S3: %w", err)
	}
	return result.Body, nil
}

// Presign returns a time-limited GET URL for a stored object.
func (s *S3MediaStore) Presign(ctx context.Context, contentID, filename string, expiry time.Duration) (string, error) {
	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(mediaKey(contentID, filename)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presigning media URL: %w", err)
	}
	return req.URL, nil
}

// Delete removes a stored object from S3.
func (s *S3MediaStore) Delete(ctx context.Context, contentID, filename string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(mediaKey(contentID, filename)),
	})
	if err != nil {
		return fmt.Errorf("deleting media from S3: %w", err)
	}
	return nil
}

// URL returns the public address of a stored key. A configured prefix (CDN
// or proxy) wins over the raw bucket endpoint.
func (s *S3MediaStore) URL(key string) string {
	if s.urlPrefix != "" {
		return fmt.Sprintf("%s/%s", s.urlPrefix, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
