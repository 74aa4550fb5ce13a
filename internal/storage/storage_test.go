package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestPublishWithoutShareLink(t *testing.T) {
	store := &fakeStore{}
	published, err := Publish(context.Background(), store, "charts/a.png", []byte("png"), ContentTypePNG, 0)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if published.Key != "charts/a.png" || published.URL != "" {
		t.Fatalf("published = %+v", published)
	}
	if store.contentType != ContentTypePNG || string(store.body) != "png" || store.shared {
		t.Fatalf("unexpected store state: %+v", store)
	}
}

func TestPublishAttachesShareLink(t *testing.T) {
	store := &fakeStore{}
	published, err := Publish(context.Background(), store, "exports/q.parquet", []byte("PAR1"), ContentTypeParquet, time.Hour)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if published.URL != "https://share.test/exports/q.parquet" {
		t.Fatalf("URL = %q", published.URL)
	}
}

func TestPublishErrors(t *testing.T) {
	if _, err := Publish(context.Background(), nil, "k", nil, ContentTypePNG, 0); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := Publish(context.Background(), &fakeStore{putErr: errors.New("denied")}, "k", nil, ContentTypePNG, 0); err == nil {
		t.Fatal("expected put error")
	}
	published, err := Publish(context.Background(), &fakeStore{shareErr: ErrObjectNotFound}, "k", nil, ContentTypePNG, time.Minute)
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Publish() error = %v, want ErrObjectNotFound", err)
	}
	if published.Key != "k" {
		t.Fatalf("key lost on share failure: %+v", published)
	}
}

type fakeStore struct {
	contentType string
	body        []byte
	shared      bool
	putErr      error
	shareErr    error
}

func (f *fakeStore) Put(_ context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error) {
	if f.putErr != nil {
		return ObjectInfo{}, f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return ObjectInfo{}, err
	}
	f.contentType, f.body = opts.ContentType, data
	return ObjectInfo{Key: key, Size: size}, nil
}

func (f *fakeStore) ShareURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.shareErr != nil {
		return "", f.shareErr
	}
	f.shared = true
	return "https://share.test/" + key, nil
}

func (f *fakeStore) Ping(context.Context) error {
	return nil
}
