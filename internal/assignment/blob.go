package assignment

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBlobNotFound is returned by BlobStore.Load when nothing is stored under the key.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore persists opaque snapshots under fixed keys. Writes go through a
// BlobWriter so a snapshot is either fully replaced or left untouched.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Begin(ctx context.Context, key string) (BlobWriter, error)
}

// BlobWriter is a scoped write handle for one key. Commit atomically replaces
// the stored blob with the last value passed to Write. Abort discards the
// pending write and is a no-op once Commit has succeeded.
type BlobWriter interface {
	Write(blob []byte) error
	Commit() error
	Abort() error
}

// WithWriter opens a writer for key, runs fn and commits only if fn returns
// nil. Every other exit path, including a panic in fn, aborts the write.
func WithWriter(ctx context.Context, store BlobStore, key string, fn func(w BlobWriter) error) (err error) {
	w, err := store.Begin(ctx, key)
	if err != nil {
		return fmt.Errorf("begin snapshot write: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if abortErr := w.Abort(); abortErr != nil && err == nil {
			err = fmt.Errorf("abort snapshot write: %w", abortErr)
		}
	}()

	if err = fn(w); err != nil {
		return err
	}
	if err = w.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	committed = true
	return nil
}

// MemoryBlobStore keeps snapshots in process memory.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobStore returns an empty in-memory store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), b...), nil
}

func (s *MemoryBlobStore) Begin(_ context.Context, key string) (BlobWriter, error) {
	return &memoryWriter{store: s, key: key}, nil
}

// Put stores blob directly, bypassing the writer. Useful for seeding.
func (s *MemoryBlobStore) Put(key string, blob []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), blob...)
}

type memoryWriter struct {
	store   *MemoryBlobStore
	key     string
	pending []byte
	written bool
	done    bool
}

func (w *memoryWriter) Write(blob []byte) error {
	if w.done {
		return errors.New("write after commit or abort")
	}
	w.pending = append([]byte(nil), blob...)
	w.written = true
	return nil
}

func (w *memoryWriter) Commit() error {
	if w.done {
		return errors.New("commit after commit or abort")
	}
	w.done = true
	if !w.written {
		return nil
	}
	w.store.Put(w.key, w.pending)
	return nil
}

func (w *memoryWriter) Abort() error {
	w.done = true
	w.pending = nil
	return nil
}
