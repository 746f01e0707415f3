package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/nhle/notekeeper/internal/live"
)

// setWatching starts the data_version watcher when the feed gets its first
// listener and stops it when the last one leaves. It runs under the feed's
// lock, which also guards stopWatch.
func (s *SQLiteStore) setWatching(active bool) {
	if !active {
		if s.stopWatch != nil {
			s.stopWatch()
			s.stopWatch = nil
		}
		return
	}
	if s.stopWatch != nil || s.closing.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(s.closing)
	s.stopWatch = cancel
	go s.watchDataVersion(ctx)
}

// watchDataVersion polls PRAGMA data_version and publishes every table when
// it moves. The value only changes for commits made by other connections,
// so writes through this store are never announced twice. Writes made while
// nobody was watching are announced on the first tick.
func (s *SQLiteStore) watchDataVersion(ctx context.Context) {
	slog.Debug("store: watching for external writes", "interval", s.pollInterval)
	defer slog.Debug("store: stopped watching for external writes")

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		v, err := s.readDataVersion(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("store: reading data_version", "error", err)
			continue
		}
		if s.dataVersion.Swap(v) == v {
			continue
		}
		slog.Debug("store: external write detected", "data_version", v)
		s.feed.Publish(live.AllTables)
	}
}

func (s *SQLiteStore) readDataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.GetContext(ctx, &v, "PRAGMA data_version"); err != nil {
		return 0, wrap("reading data_version", err)
	}
	return v, nil
}
