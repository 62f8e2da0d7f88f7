package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mip-org/mip-core/internal/config"
	"github.com/mip-org/mip-core/internal/version"
)

// errInvalidEndpoint is returned for an endpoint without a host.
var errInvalidEndpoint = errors.New("storage endpoint must include a host")

// S3 is a Bucket backed by an S3-compatible service such as Cloudflare R2 or MinIO.
type S3 struct {
	client *minio.Client
	bucket string
}

// NewS3 creates a client for the bucket described by cfg.
// The endpoint is a URL; https selects TLS.
func NewS3(cfg config.Storage) (*S3, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse storage endpoint: %w", err)
	}

	if endpoint.Host == "" {
		return nil, fmt.Errorf("%q: %w", cfg.Endpoint, errInvalidEndpoint)
	}

	client, err := minio.New(endpoint.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: endpoint.Scheme == "https",
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	client.SetAppInfo("mip-core", version.Short())

	return &S3{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Name returns the bucket name.
func (s *S3) Name() string {
	return s.bucket
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}

	if exists {
		return nil
	}

	if err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}

	return nil
}

// Put implements Bucket.
func (s *S3) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.bucket, key, err)
	}

	return nil
}

// PutFile implements Bucket.
func (s *S3) PutFile(ctx context.Context, key, path, contentType string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, key, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.bucket, key, err)
	}

	return nil
}

// List implements Bucket.
func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objects {
		if object.Err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, prefix, object.Err)
		}

		keys = append(keys, object.Key)
	}

	return keys, nil
}

// Get implements Bucket.
func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}

	defer func() {
		_ = object.Close()
	}()

	contents, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}

		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}

	return contents, nil
}
