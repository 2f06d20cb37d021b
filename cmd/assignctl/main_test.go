package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/weathernow-service/internal/assignment"
	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	known map[uuid.UUID]bool
}

func (s stubCatalog) ListPhotos(context.Context) ([]domain.Photo, error) { return nil, nil }

func (s stubCatalog) LookupByID(_ context.Context, id uuid.UUID) (domain.Photo, bool, error) {
	return domain.Photo{ID: id}, s.known[id], nil
}

func openStore(t *testing.T, blobs assignment.BlobStore) *assignment.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := assignment.Open(context.Background(), blobs, observability.NewMetricsForTesting(), logger)
	require.NoError(t, err)
	return s
}

func TestCheckSnapshot_ReportsDroppedEntries(t *testing.T) {
	blobs := assignment.NewMemoryBlobStore()
	blobs.Put(assignment.SnapshotKey, []byte(`{"Rain":"`+uuid.NewString()+`","Hail":"`+uuid.NewString()+`","Fog":"not-a-uuid"}`))

	p := checkSnapshot(context.Background(), blobs)

	assert.Equal(t, []string{`Fog: invalid photo id "not-a-uuid"`, `unknown category key "Hail"`}, p.errors)
}

func TestCheckSnapshot_MissingIsClean(t *testing.T) {
	p := checkSnapshot(context.Background(), assignment.NewMemoryBlobStore())
	assert.True(t, p.passed())
}

func TestCheckSnapshot_Garbage(t *testing.T) {
	blobs := assignment.NewMemoryBlobStore()
	blobs.Put(assignment.SnapshotKey, []byte(`[1,2`))

	p := checkSnapshot(context.Background(), blobs)
	assert.False(t, p.passed())
}

func TestRunCheck(t *testing.T) {
	ctx := context.Background()
	blobs := assignment.NewMemoryBlobStore()
	store := openStore(t, blobs)

	known := make(map[uuid.UUID]bool)
	for _, c := range domain.AllCategories() {
		id := uuid.New()
		known[id] = true
		_, err := store.Assign(ctx, c, id)
		require.NoError(t, err)
	}

	var out bytes.Buffer
	assert.Equal(t, 0, runCheck(ctx, blobs, store, stubCatalog{known: known}, &out))
	assert.Contains(t, out.String(), "All checks passed.")

	dangling := uuid.New()
	_, err := store.Assign(ctx, domain.CategorySnow, dangling)
	require.NoError(t, err)

	out.Reset()
	assert.Equal(t, 1, runCheck(ctx, blobs, store, stubCatalog{known: known}, &out))
	assert.Contains(t, out.String(), "Snow: photo "+dangling.String()+" no longer exists")
}

func TestRunAssign(t *testing.T) {
	store := openStore(t, assignment.NewMemoryBlobStore())
	id := uuid.New()

	var out bytes.Buffer
	code := runAssign(context.Background(), store, []string{"-category", "fog", "-photo", id.String()}, &out)

	assert.Equal(t, 0, code)
	got, ok := store.Get(domain.CategoryFog)
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Contains(t, out.String(), "Missing: [Clear Rain Snow]")

	assert.Equal(t, 2, runAssign(context.Background(), store, []string{"-category", "hail", "-photo", id.String()}, &out))
	assert.Equal(t, 2, runAssign(context.Background(), store, []string{"-category", "Rain", "-photo", "x"}, &out))
}
