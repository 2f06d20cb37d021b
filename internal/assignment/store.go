package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/couchcryptid/weathernow-service/internal/domain"
	"github.com/couchcryptid/weathernow-service/internal/observability"
	"github.com/google/uuid"
)

// SnapshotKey is the fixed key the assignment map is persisted under.
const SnapshotKey = "WeatherPhotoAssignments"

// Summary is the state of the assignment map after an operation.
type Summary struct {
	Assignments map[domain.WeatherCategory]uuid.UUID `json:"assignments"`
	Complete    bool                                 `json:"complete"`
	Missing     []domain.WeatherCategory             `json:"missing"`
}

// Store maps each weather category to the photo chosen for it. The whole map
// is persisted as one snapshot after every mutation; readers never observe a
// partially applied change.
type Store struct {
	mu          sync.RWMutex
	blobs       BlobStore
	assignments map[domain.WeatherCategory]uuid.UUID
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// Open loads the persisted snapshot from blobs. A missing or undecodable
// snapshot yields an empty map; only backend failures are returned.
func Open(ctx context.Context, blobs BlobStore, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	s := &Store{
		blobs:       blobs,
		assignments: make(map[domain.WeatherCategory]uuid.UUID),
		metrics:     metrics,
		logger:      logger.With("component", "assignment"),
	}

	blob, err := blobs.Load(ctx, SnapshotKey)
	switch {
	case errors.Is(err, ErrBlobNotFound):
		s.logger.Info("no assignment snapshot found, starting empty")
	case err != nil:
		return nil, fmt.Errorf("load assignment snapshot: %w", err)
	default:
		s.assignments = decodeSnapshot(blob, s.logger)
	}

	s.updateGauge()
	s.logger.Info("assignments loaded", "assigned", len(s.assignments), "complete", s.isComplete())
	return s, nil
}

// Get returns the photo assigned to c.
func (s *Store) Get(c domain.WeatherCategory) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.assignments[c]
	return id, ok
}

// Has reports whether c has an assignment. The referenced photo may no longer exist.
func (s *Store) Has(c domain.WeatherCategory) bool {
	_, ok := s.Get(c)
	return ok
}

// Assign sets the photo for c, replacing any previous choice, and persists
// the map. On error the in-memory map is unchanged.
func (s *Store) Assign(ctx context.Context, c domain.WeatherCategory, photoID uuid.UUID) (Summary, error) {
	if !c.Valid() {
		return Summary{}, &domain.Error{Kind: domain.KindInvalidInput, Op: "assign", Err: fmt.Errorf("unknown weather category %q", c)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.assignments)
	next[c] = photoID
	if err := s.persist(ctx, "assign", next); err != nil {
		return Summary{}, err
	}
	s.assignments = next
	s.updateGauge()

	s.logger.Info("photo assigned", "category", c, "photo_id", photoID)
	return s.summary(), nil
}

// ResetAll clears every assignment and persists the empty map.
func (s *Store) ResetAll(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[domain.WeatherCategory]uuid.UUID)
	if err := s.persist(ctx, "reset", next); err != nil {
		return Summary{}, err
	}
	s.assignments = next
	s.updateGauge()

	s.logger.Info("assignments reset")
	return s.summary(), nil
}

// IsComplete reports whether every category has an assignment.
func (s *Store) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isComplete()
}

// Missing returns the unassigned categories in canonical order.
func (s *Store) Missing() []domain.WeatherCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.missing()
}

// Snapshot returns a copy of the current map.
func (s *Store) Snapshot() map[domain.WeatherCategory]uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.assignments)
}

// Summary returns the current map with its completeness.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary()
}

func (s *Store) summary() Summary {
	return Summary{
		Assignments: maps.Clone(s.assignments),
		Complete:    s.isComplete(),
		Missing:     s.missing(),
	}
}

func (s *Store) isComplete() bool {
	return len(s.missing()) == 0
}

func (s *Store) missing() []domain.WeatherCategory {
	missing := make([]domain.WeatherCategory, 0, len(domain.AllCategories()))
	for _, c := range domain.AllCategories() {
		if _, ok := s.assignments[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// persist writes next as the new snapshot. Caller holds s.mu.
func (s *Store) persist(ctx context.Context, op string, next map[domain.WeatherCategory]uuid.UUID) error {
	blob, err := encodeSnapshot(next)
	if err != nil {
		s.metrics.AssignmentWrites.WithLabelValues(op, "error").Inc()
		return err
	}

	err = WithWriter(ctx, s.blobs, SnapshotKey, func(w BlobWriter) error {
		return w.Write(blob)
	})
	if err != nil {
		s.metrics.AssignmentWrites.WithLabelValues(op, "error").Inc()
		s.logger.Error("persist assignments failed", "op", op, "error", err)
		return fmt.Errorf("persist assignments: %w", err)
	}

	s.metrics.AssignmentWrites.WithLabelValues(op, "success").Inc()
	return nil
}

func (s *Store) updateGauge() {
	complete := 0.0
	if s.isComplete() {
		complete = 1
	}
	s.metrics.AssignmentsComplete.Set(complete)
}
