// Package storage describes where rendered charts and result exports are
// published. The s3 subpackage implements it against any S3-compatible
// endpoint.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

const (
	ContentTypePNG     = "image/png"
	ContentTypeParquet = "application/vnd.apache.parquet"
)

// MaxShareTTL is the longest lifetime S3 accepts for a presigned link.
const MaxShareTTL = 7 * 24 * time.Hour

type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

type PutOptions struct {
	ContentType string
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error)
	// ShareURL returns a download link for an existing object that stops
	// working after ttl.
	ShareURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Ping(ctx context.Context) error
}

// Published locates an uploaded artifact. URL is empty when sharing is off.
type Published struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// Publish uploads data under key and, when shareTTL is positive, attaches a
// share link to the result.
func Publish(ctx context.Context, store ObjectStore, key string, data []byte, contentType string, shareTTL time.Duration) (Published, error) {
	if store == nil {
		return Published{}, fmt.Errorf("object store is required")
	}
	if _, err := store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), PutOptions{ContentType: contentType}); err != nil {
		return Published{}, err
	}
	published := Published{Key: key}
	if shareTTL <= 0 {
		return published, nil
	}
	url, err := store.ShareURL(ctx, key, shareTTL)
	if err != nil {
		return published, fmt.Errorf("share %s: %w", key, err)
	}
	published.URL = url
	return published, nil
}
