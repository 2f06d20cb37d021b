package valkey

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Round trips against a real server live in internal/integration.

func TestWriter_AbortedWriterNeverReachesServer(t *testing.T) {
	// A nil client would panic if Commit tried to send anything.
	s := NewBlobStore(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	w, err := s.Begin(context.Background(), "WeatherPhotoAssignments")
	require.NoError(t, err)
	require.NoError(t, w.Write([]byte(`{}`)))
	require.NoError(t, w.Abort())

	assert.ErrorIs(t, w.Commit(), errWriterClosed)
	assert.ErrorIs(t, w.Write([]byte(`{}`)), errWriterClosed)
}

func TestWriter_CommitWithoutWriteIsNoop(t *testing.T) {
	s := NewBlobStore(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	w, err := s.Begin(context.Background(), "k")
	require.NoError(t, err)
	assert.NoError(t, w.Commit())
	assert.NoError(t, w.Abort(), "abort after commit is a no-op")
}

func TestWriter_PrefixesKey(t *testing.T) {
	s := NewBlobStore(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	w, err := s.Begin(context.Background(), "WeatherPhotoAssignments")
	require.NoError(t, err)
	assert.Equal(t, "weathernow:WeatherPhotoAssignments", w.(*writer).key)
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("redis://%zz")
	assert.Error(t, err)
}
