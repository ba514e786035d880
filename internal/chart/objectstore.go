package chart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/analystbot/analystbot/internal/chat"
	"github.com/analystbot/analystbot/internal/storage"
)

// DefaultPresignTTL is how long an object store chart link stays valid.
const DefaultPresignTTL = 24 * time.Hour

// ObjectStoreUploader hosts charts in an S3-compatible bucket and links
// them with presigned URLs.
type ObjectStoreUploader struct {
	store storage.ObjectStore
	ttl   time.Duration
	newID func() string
}

func NewObjectStoreUploader(store storage.ObjectStore, ttl time.Duration) *ObjectStoreUploader {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &ObjectStoreUploader{store: store, ttl: ttl, newID: uuid.NewString}
}

func (u *ObjectStoreUploader) Upload(ctx context.Context, name, path string) (chat.Image, error) {
	if u.store == nil {
		return chat.Image{}, fmt.Errorf("object store is required")
	}
	key, err := storage.BuildChartKey(u.newID(), filepath.Ext(name))
	if err != nil {
		return chat.Image{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return chat.Image{}, fmt.Errorf("open chart file: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return chat.Image{}, fmt.Errorf("stat chart file: %w", err)
	}

	if _, err := u.store.Put(ctx, key, file, info.Size(), storage.PutOptions{ContentType: "image/png"}); err != nil {
		return chat.Image{}, fmt.Errorf("store chart: %w", err)
	}
	link, err := u.store.PresignGet(ctx, key, u.ttl)
	if err != nil {
		if deleteErr := u.store.Delete(ctx, key); deleteErr != nil {
			return chat.Image{}, fmt.Errorf("presign chart: %w (cleanup: %v)", err, deleteErr)
		}
		return chat.Image{}, fmt.Errorf("presign chart: %w", err)
	}
	return chat.Image{URL: link, Title: "Chart"}, nil
}
