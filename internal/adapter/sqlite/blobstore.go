package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weathernow-service/internal/assignment"
	"github.com/couchcryptid/weathernow-service/internal/domain"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	blob       BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// BlobStore implements assignment.BlobStore on a local SQLite file. Each
// snapshot write runs in its own transaction.
type BlobStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*BlobStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	logger.Info("sqlite snapshot store opened", "path", path)
	return &BlobStore{db: db, logger: logger.With("component", "sqlite")}, nil
}

func (s *BlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM snapshots WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, assignment.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return blob, nil
}

func (s *BlobStore) Begin(ctx context.Context, key string) (assignment.BlobWriter, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &writer{ctx: ctx, tx: tx, key: key}, nil
}

// CheckReadiness pings the database.
func (s *BlobStore) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *BlobStore) Close() error {
	return s.db.Close()
}

type writer struct {
	ctx context.Context
	tx  *sql.Tx
	key string
}

func (w *writer) Write(blob []byte) error {
	_, err := w.tx.ExecContext(w.ctx,
		`INSERT INTO snapshots (key, blob, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		w.key, blob, domain.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", w.key, err)
	}
	return nil
}

func (w *writer) Commit() error {
	return w.tx.Commit()
}

func (w *writer) Abort() error {
	if err := w.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

var _ assignment.BlobStore = (*BlobStore)(nil)
