package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const presignExpiry = 15 * time.Minute

// Config locates the bucket holding the photo collection.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
}

// Catalog implements domain.PhotoCatalog over an S3-compatible bucket. Each
// photo is one object keyed <prefix><uuid>, optionally with an extension.
// Description, favorite flag and capture time are read from user metadata.
type Catalog struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewCatalog connects to the object store. No request is made until the
// first lookup.
func NewCatalog(cfg Config, logger *slog.Logger) (*Catalog, error) {
	client, err := minio.New(sanitizeEndpoint(cfg.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       strings.HasPrefix(strings.ToLower(cfg.Endpoint), "https"),
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	return &Catalog{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger.With("component", "objectstore"),
	}, nil
}

// ListPhotos returns every photo under the prefix. Objects whose name is not
// a photo id are skipped.
func (c *Catalog) ListPhotos(ctx context.Context) ([]domain.Photo, error) {
	var photos []domain.Photo
	opts := minio.ListObjectsOptions{Prefix: c.prefix, Recursive: true, WithMetadata: true}
	for obj := range c.client.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list photos: %w", obj.Err)
		}
		id, ok := idFromKey(c.prefix, obj.Key)
		if !ok {
			c.logger.Debug("skipping non-photo object", "key", obj.Key)
			continue
		}
		photos = append(photos, photoFromInfo(id, obj))
	}
	return photos, nil
}

// LookupByID finds the object named after id, with or without an extension,
// and stats it. It reports false when the photo has been deleted.
func (c *Catalog) LookupByID(ctx context.Context, id uuid.UUID) (domain.Photo, bool, error) {
	key, found, err := c.findKey(ctx, id)
	if err != nil {
		return domain.Photo{}, false, err
	}
	if !found {
		return domain.Photo{}, false, nil
	}

	info, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return domain.Photo{}, false, nil
		}
		return domain.Photo{}, false, fmt.Errorf("stat photo %s: %w", id, err)
	}

	photo := photoFromInfo(id, info)
	u, err := c.client.PresignedGetObject(ctx, c.bucket, key, presignExpiry, nil)
	if err != nil {
		c.logger.Warn("presign photo url failed", "photo_id", id, "error", err)
	} else {
		photo.URL = u.String()
	}
	return photo, true, nil
}

// findKey returns the first object key that idFromKey maps back to id.
func (c *Catalog) findKey(ctx context.Context, id uuid.UUID) (string, bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // stops the listing goroutine on early return

	opts := minio.ListObjectsOptions{Prefix: c.prefix + id.String(), Recursive: true}
	for obj := range c.client.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return "", false, fmt.Errorf("find photo %s: %w", id, obj.Err)
		}
		if got, ok := idFromKey(c.prefix, obj.Key); ok && got == id {
			return obj.Key, true, nil
		}
	}
	return "", false, nil
}

// CheckReadiness verifies the bucket is reachable.
func (c *Catalog) CheckReadiness(ctx context.Context) error {
	ok, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("photo bucket: %w", err)
	}
	if !ok {
		return fmt.Errorf("photo bucket %q does not exist", c.bucket)
	}
	return nil
}

func idFromKey(prefix, key string) (uuid.UUID, bool) {
	name, ok := strings.CutPrefix(key, prefix)
	if !ok || strings.Contains(name, "/") {
		return uuid.Nil, false
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	id, err := uuid.Parse(name)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func photoFromInfo(id uuid.UUID, info minio.ObjectInfo) domain.Photo {
	meta := info.UserMetadata
	p := domain.Photo{
		ID:          id,
		Description: metaValue(meta, "description"),
		ContentType: info.ContentType,
		Size:        info.Size,
		AddedAt:     info.LastModified,
	}
	if fav, err := strconv.ParseBool(metaValue(meta, "favorite")); err == nil {
		p.Favorite = fav
	}
	if added, err := time.Parse(time.RFC3339, metaValue(meta, "added-at")); err == nil {
		p.AddedAt = added
	}
	return p
}

// metaValue reads user metadata regardless of whether the server returned
// keys with or without the x-amz-meta- prefix.
func metaValue(meta map[string]string, name string) string {
	for k, v := range meta {
		k = strings.ToLower(k)
		k = strings.TrimPrefix(k, "x-amz-meta-")
		if k == name {
			return v
		}
	}
	return ""
}

// sanitizeEndpoint strips scheme and path, which minio.New does not accept.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if host, _, found := strings.Cut(raw, "/"); found {
		return host
	}
	return raw
}

var _ domain.PhotoCatalog = (*Catalog)(nil)
