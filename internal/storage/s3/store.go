// Package s3 publishes artifacts to an S3-compatible object store through
// minio-go. Keys are rooted under an optional prefix inside one bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sqler/sqler/internal/config"
	"github.com/sqler/sqler/internal/storage"
)

type client interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) (storage.ObjectInfo, error)
	StatObject(ctx context.Context, bucket, key string) (storage.ObjectInfo, error)
	PresignedGetObject(ctx context.Context, bucket, key string, ttl time.Duration) (*url.URL, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket, region string) error
}

// Store publishes chart images and Parquet exports into one bucket.
type Store struct {
	client client
	bucket string
	prefix string
}

var _ storage.ObjectStore = (*Store)(nil)

// Open connects to the configured endpoint and, when asked to, creates the
// bucket on first use.
func Open(ctx context.Context, cfg config.ObjectStoreConfig) (*Store, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	endpoint, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: strings.TrimSpace(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	store, err := newStore(cfg.Bucket, cfg.Prefix, minioClient{mc})
	if err != nil {
		return nil, err
	}
	if cfg.AutoCreateBucket {
		if err := store.ensureBucket(ctx, strings.TrimSpace(cfg.Region)); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func newStore(bucket, prefix string, c client) (*Store, error) {
	if c == nil {
		return nil, fmt.Errorf("client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}
	return &Store{client: c, bucket: bucket, prefix: cleanPrefix(prefix)}, nil
}

func (s *Store) Bucket() string {
	return s.bucket
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	info, err := s.client.PutObject(ctx, s.bucket, objectKey, body, size, opts.ContentType)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("put %s/%s: %w", s.bucket, objectKey, err)
	}
	return info, nil
}

// ShareURL presigns a GET for key. Missing objects are reported as
// storage.ErrObjectNotFound instead of yielding a link that 404s.
func (s *Store) ShareURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 || ttl > storage.MaxShareTTL {
		return "", fmt.Errorf("share ttl must be within (0, %s]: %s", storage.MaxShareTTL, ttl)
	}
	objectKey, err := s.objectKey(key)
	if err != nil {
		return "", err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, objectKey); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", storage.ErrObjectNotFound
		}
		return "", fmt.Errorf("stat %s/%s: %w", s.bucket, objectKey, err)
	}
	link, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, ttl)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", s.bucket, objectKey, err)
	}
	return link.String(), nil
}

// Ping checks that the bucket is reachable and exists.
func (s *Store) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func (s *Store) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, region); err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	return nil
}

// objectKey rejects keys that would escape the prefix.
func (s *Store) objectKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	if s.prefix == "" {
		return cleaned, nil
	}
	return path.Join(s.prefix, cleaned), nil
}

func cleanPrefix(prefix string) string {
	prefix = strings.TrimPrefix(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	if prefix = path.Clean(prefix); prefix == "." {
		return ""
	}
	return prefix
}

// parseEndpoint accepts host:port or a URL; an https URL forces TLS.
func parseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return raw, useSSL, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint URL: %w", err)
	}
	if parsed.Host == "" {
		return "", false, fmt.Errorf("endpoint host is required")
	}
	return parsed.Host, useSSL || parsed.Scheme == "https", nil
}

type minioClient struct {
	mc *minio.Client
}

func (m minioClient) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	info, err := m.mc.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return storage.ObjectInfo{}, mapMinioErr(err)
	}
	return storage.ObjectInfo{Key: info.Key, Size: info.Size, ETag: info.ETag}, nil
}

func (m minioClient) StatObject(ctx context.Context, bucket, key string) (storage.ObjectInfo, error) {
	info, err := m.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return storage.ObjectInfo{}, mapMinioErr(err)
	}
	return storage.ObjectInfo{Key: info.Key, Size: info.Size, ETag: info.ETag}, nil
}

func (m minioClient) PresignedGetObject(ctx context.Context, bucket, key string, ttl time.Duration) (*url.URL, error) {
	link, err := m.mc.PresignedGetObject(ctx, bucket, key, ttl, nil)
	return link, mapMinioErr(err)
}

func (m minioClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := m.mc.BucketExists(ctx, bucket)
	return exists, mapMinioErr(err)
}

func (m minioClient) MakeBucket(ctx context.Context, bucket, region string) error {
	return mapMinioErr(m.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}))
}

func mapMinioErr(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return storage.ErrObjectNotFound
	}
	return err
}
