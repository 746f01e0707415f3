package live

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Result is one emission of a query stream.
type Result[T any] struct {
	Value T
	Err   error
}

// FetchFunc loads the current snapshot of a query.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Query is a reactive read: a fetch function plus the tables whose changes
// make its snapshot stale. A Query holds no state of its own and can be
// subscribed any number of times.
type Query[T any] struct {
	name   string
	feed   *Feed
	tables Table
	fetch  FetchFunc[T]
}

// NewQuery builds a query that re-runs fetch whenever one of tables changes.
func NewQuery[T any](name string, feed *Feed, tables Table, fetch FetchFunc[T]) *Query[T] {
	return &Query[T]{name: name, feed: feed, tables: tables, fetch: fetch}
}

// Name returns the query's label, used in logs.
func (q *Query[T]) Name() string { return q.name }

// Get runs the query once.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	return q.fetch(ctx)
}

// Subscribe starts a stream that first emits the current snapshot and then
// a fresh snapshot after each relevant change. Changes that arrive while
// the consumer is not reading are merged, so the consumer always receives
// the latest state rather than every intermediate one. The channel is
// closed once ctx is done.
//
// Fetch errors are emitted as a Result with Err set; the stream stays open
// and retries on the next change.
func (q *Query[T]) Subscribe(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T])

	// Register before the first fetch so no change between the fetch and
	// the first wait is lost.
	l, unlisten := q.feed.listen(q.tables)
	id := uuid.NewString()
	slog.Debug("live: subscription opened", "query", q.name, "sub", id)

	go func() {
		defer close(out)
		defer unlisten()
		defer slog.Debug("live: subscription closed", "query", q.name, "sub", id)

		for {
			v, err := q.fetch(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				slog.Warn("live: fetch failed", "query", q.name, "sub", id, "error", err)
			}

			select {
			case out <- Result[T]{Value: v, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-l.signal:
				changed := l.drain()
				slog.Debug("live: refreshing", "query", q.name, "sub", id, "tables", changed)
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// First returns the first snapshot emitted by a fresh subscription.
func (q *Query[T]) First(ctx context.Context) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r, ok := <-q.Subscribe(ctx)
	if !ok {
		var zero T
		return zero, ctx.Err()
	}
	return r.Value, r.Err
}
