package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/notekeeper/internal/model"
	"github.com/nhle/notekeeper/internal/repository"
	"github.com/nhle/notekeeper/internal/store"
)

// NewTestStore creates a SQLiteStore in a temporary directory with all
// migrations applied. It automatically closes the store when the test
// completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "notes.db"), 0)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestRepository wraps a fresh test store in a Repository.
func NewTestRepository(t *testing.T, opts ...repository.Option) (*repository.Repository, *store.SQLiteStore) {
	t.Helper()
	s := NewTestStore(t)
	return repository.New(s, opts...), s
}

// Millis returns the UTC time for a unix-millisecond value, matching the
// precision the store keeps.
func Millis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// MustSave saves a note through the store and returns its ID.
func MustSave(t *testing.T, s store.Store, note model.Note) int64 {
	t.Helper()
	id, err := s.UpsertNote(context.Background(), note)
	if err != nil {
		t.Fatalf("saving note %q: %v", note.Title, err)
	}
	return id
}

// Receive waits for the next value on ch or fails the test after timeout.
func Receive[T any](t *testing.T, ch <-chan T, timeout time.Duration) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while waiting for a value")
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %s waiting for a value", timeout)
	}
	var zero T
	return zero
}
