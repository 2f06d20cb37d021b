// Package storage opens the assignment snapshot backend named in the config.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weathernow-service/internal/adapter/sqlite"
	valkeyadapter "github.com/couchcryptid/weathernow-service/internal/adapter/valkey"
	"github.com/couchcryptid/weathernow-service/internal/assignment"
	"github.com/couchcryptid/weathernow-service/internal/config"
)

// Backend is an opened snapshot store.
type Backend struct {
	assignment.BlobStore
	Name  string
	close func() error
}

// CheckReadiness pings the backend. The memory backend is always ready.
func (b *Backend) CheckReadiness(ctx context.Context) error {
	if r, ok := b.BlobStore.(interface{ CheckReadiness(context.Context) error }); ok {
		return r.CheckReadiness(ctx)
	}
	return nil
}

// Close releases the backend's connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to the backend selected by cfg.AssignmentBackend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.AssignmentBackend {
	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{BlobStore: store, Name: config.BackendSQLite, close: store.Close}, nil
	case config.BackendValkey:
		client, err := valkeyadapter.NewClient(cfg.ValkeyAddr)
		if err != nil {
			return nil, err
		}
		store := valkeyadapter.NewBlobStore(client, logger)
		return &Backend{
			BlobStore: store,
			Name:      config.BackendValkey,
			close:     func() error { store.Close(); return nil },
		}, nil
	case config.BackendMemory:
		return &Backend{BlobStore: assignment.NewMemoryBlobStore(), Name: config.BackendMemory}, nil
	default:
		return nil, fmt.Errorf("unknown assignment backend %q", cfg.AssignmentBackend)
	}
}
