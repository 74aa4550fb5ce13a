package chart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sqler/sqler/internal/storage"
)

// WriteFile writes image to path, replacing any previous chart there.
func WriteFile(path string, image []byte) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create chart directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, image, 0o644); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write chart: %w", err)
	}
	return path, nil
}

// PathFor is the chart file for artifact id inside dir.
func PathFor(dir, id string) (string, error) {
	if !storage.ValidArtifactID(id) {
		return "", fmt.Errorf("invalid chart id: %q", id)
	}
	return filepath.Join(dir, id+".png"), nil
}

// Publisher uploads rendered charts. A positive ShareTTL also attaches a
// time-limited download link.
type Publisher struct {
	Store    storage.ObjectStore
	ShareTTL time.Duration
	Now      func() time.Time
}

// Publish uploads image under charts/date=YYYY-MM-DD/<id>.png.
func (p Publisher) Publish(ctx context.Context, id string, image []byte) (storage.Published, error) {
	if p.Store == nil {
		return storage.Published{}, fmt.Errorf("object store is required")
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	key, err := storage.ChartKey(id, now())
	if err != nil {
		return storage.Published{}, err
	}
	published, err := storage.Publish(ctx, p.Store, key, image, storage.ContentTypePNG, p.ShareTTL)
	if err != nil {
		return published, fmt.Errorf("publish chart: %w", err)
	}
	return published, nil
}
