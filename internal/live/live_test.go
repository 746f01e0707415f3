package live

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wait = 2 * time.Second

func TestTable_String(t *testing.T) {
	assert.Equal(t, "none", Table(0).String())
	assert.Equal(t, "notes", Notes.String())
	assert.Equal(t, "notes|media|reminders", AllTables.String())
}

func TestFeed_MasksAndCoalesces(t *testing.T) {
	f := NewFeed()
	l, unlisten := f.listen(Notes | Media)

	f.Publish(Reminders)
	select {
	case <-l.signal:
		t.Fatal("listener woken by an unrelated table")
	default:
	}

	f.Publish(Notes)
	f.Publish(Media | Reminders)
	f.Publish(Notes)

	select {
	case <-l.signal:
	default:
		t.Fatal("expected a queued wakeup")
	}
	assert.Equal(t, Notes|Media, l.drain())
	assert.Equal(t, Table(0), l.drain())

	assert.Equal(t, 1, f.Listeners())
	unlisten()
	assert.Equal(t, 0, f.Listeners())
}

func TestFeed_OnActiveTracksFirstAndLastListener(t *testing.T) {
	f := NewFeed()
	var events []bool
	f.OnActive(func(active bool) { events = append(events, active) })

	_, first := f.listen(Notes)
	_, second := f.listen(Media)
	assert.Equal(t, []bool{true}, events)

	first()
	first()
	assert.Equal(t, []bool{true}, events)

	second()
	assert.Equal(t, []bool{true, false}, events)

	_, again := f.listen(AllTables)
	again()
	assert.Equal(t, []bool{true, false, true, false}, events)
}

func TestFeed_PublishZeroIsNoop(t *testing.T) {
	f := NewFeed()
	l, unlisten := f.listen(AllTables)
	defer unlisten()

	f.Publish(0)
	select {
	case <-l.signal:
		t.Fatal("empty publish woke listener")
	default:
	}
}

// counter is a fetch function returning how often it has been called.
func counter() (FetchFunc[int], *atomic.Int32) {
	var n atomic.Int32
	return func(ctx context.Context) (int, error) {
		return int(n.Add(1)), nil
	}, &n
}

func receive[T any](t *testing.T, ch <-chan Result[T]) Result[T] {
	t.Helper()
	select {
	case r, ok := <-ch:
		require.True(t, ok, "stream closed")
		return r
	case <-time.After(wait):
		t.Fatal("timed out waiting for emission")
	}
	return Result[T]{}
}

func TestQuery_EmitsCurrentThenRefreshes(t *testing.T) {
	f := NewFeed()
	fetch, _ := counter()
	q := NewQuery("count", f, Notes, fetch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := q.Subscribe(ctx)

	assert.Equal(t, 1, receive(t, ch).Value)

	f.Publish(Notes)
	assert.Equal(t, 2, receive(t, ch).Value)
}

func TestQuery_IgnoresUnrelatedTables(t *testing.T) {
	f := NewFeed()
	fetch, calls := counter()
	q := NewQuery("count", f, Media, fetch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := q.Subscribe(ctx)
	receive(t, ch)

	f.Publish(Notes | Reminders)
	select {
	case r := <-ch:
		t.Fatalf("unexpected emission %v", r.Value)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_SlowConsumerSeesLatest(t *testing.T) {
	f := NewFeed()
	fetch, calls := counter()
	q := NewQuery("count", f, Notes, fetch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := q.Subscribe(ctx)
	assert.Equal(t, 1, receive(t, ch).Value)

	// Publishes arriving while a refetch is in flight or blocked on send
	// merge into at most one further refresh.
	for i := 0; i < 5; i++ {
		f.Publish(Notes)
	}

	var got []int
	got = append(got, receive(t, ch).Value)
	for quiet := false; !quiet; {
		select {
		case r := <-ch:
			got = append(got, r.Value)
		case <-time.After(100 * time.Millisecond):
			quiet = true
		}
	}

	assert.LessOrEqual(t, len(got), 2, "emissions %v", got)
	assert.Equal(t, int(calls.Load()), got[len(got)-1], "last emission is the latest snapshot")
}

func TestQuery_ClosesOnCancel(t *testing.T) {
	f := NewFeed()
	fetch, _ := counter()
	q := NewQuery("count", f, Notes, fetch)

	ctx, cancel := context.WithCancel(context.Background())
	ch := q.Subscribe(ctx)
	receive(t, ch)
	require.Equal(t, 1, f.Listeners())

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(wait):
		t.Fatal("stream not closed after cancel")
	}

	assert.Eventually(t, func() bool { return f.Listeners() == 0 }, wait, 10*time.Millisecond)
}

func TestQuery_FetchErrorKeepsStreamOpen(t *testing.T) {
	f := NewFeed()
	boom := errors.New("boom")
	var calls atomic.Int32
	q := NewQuery("flaky", f, Notes, func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", boom
		}
		return "ok", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := q.Subscribe(ctx)

	first := receive(t, ch)
	assert.ErrorIs(t, first.Err, boom)

	f.Publish(Notes)
	second := receive(t, ch)
	require.NoError(t, second.Err)
	assert.Equal(t, "ok", second.Value)
}

func TestQuery_GetAndFirst(t *testing.T) {
	f := NewFeed()
	fetch, _ := counter()
	q := NewQuery("count", f, Notes, fetch)

	v, err := q.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = q.First(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	assert.Equal(t, "count", q.Name())
	assert.Eventually(t, func() bool { return f.Listeners() == 0 }, wait, 10*time.Millisecond)
}
