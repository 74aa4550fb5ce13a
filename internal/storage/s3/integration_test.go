//go:build integration

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sqler/sqler/internal/config"
	"github.com/sqler/sqler/internal/storage"
)

func TestStoreRoundTripAgainstMinIO(t *testing.T) {
	endpoint := envOr("SQLER_TEST_S3_ENDPOINT", "")
	if endpoint == "" {
		t.Skip("SQLER_TEST_S3_ENDPOINT is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store, err := Open(ctx, config.ObjectStoreConfig{
		Enabled:          true,
		Endpoint:         endpoint,
		Region:           envOr("SQLER_TEST_S3_REGION", "us-east-1"),
		Bucket:           envOr("SQLER_TEST_S3_BUCKET", "sqler-it"),
		AccessKeyID:      envOr("SQLER_TEST_S3_ACCESS_KEY", "minio"),
		SecretAccessKey:  envOr("SQLER_TEST_S3_SECRET_KEY", "miniostorage"),
		Prefix:           "integration-tests",
		AutoCreateBucket: true,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	key, err := storage.ChartKey("roundtrip", time.Now())
	if err != nil {
		t.Fatalf("ChartKey() error = %v", err)
	}
	payload := []byte("sqler-integration")

	if _, err := store.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), storage.PutOptions{ContentType: storage.ContentTypePNG}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	link, err := store.ShareURL(ctx, key, 5*time.Minute)
	if err != nil {
		t.Fatalf("ShareURL() error = %v", err)
	}
	resp, err := http.Get(link)
	if err != nil {
		t.Fatalf("GET share url: %v", err)
	}
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK || !bytes.Equal(got, payload) {
		t.Fatalf("share url returned %d %q, want %q", resp.StatusCode, got, payload)
	}

	if _, err := store.ShareURL(ctx, "charts/absent.png", time.Minute); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("ShareURL() absent error = %v, want ErrObjectNotFound", err)
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
