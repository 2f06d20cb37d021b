package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Photo is a user photo as seen by the weather feature. The photo collection
// itself is owned elsewhere; this is a read-only view of it.
type Photo struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description,omitempty"`
	Favorite    bool      `json:"favorite"`
	AddedAt     time.Time `json:"added_at"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	URL         string    `json:"url,omitempty"`
}

// PhotoCatalog is the read-only view of the external photo store.
// LookupByID reports false, with a nil error, when no photo has the given id.
type PhotoCatalog interface {
	ListPhotos(ctx context.Context) ([]Photo, error)
	LookupByID(ctx context.Context, id uuid.UUID) (Photo, bool, error)
}
