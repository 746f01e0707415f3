// Package live turns table change notifications into restartable streams
// of query snapshots.
package live

import (
	"strings"
	"sync"
)

// Table is a set of persisted tables, used as a change mask.
type Table uint8

const (
	Notes Table = 1 << iota
	Media
	Reminders

	AllTables = Notes | Media | Reminders
)

// Has reports whether any table in other is part of t.
func (t Table) Has(other Table) bool { return t&other != 0 }

func (t Table) String() string {
	if t == 0 {
		return "none"
	}
	var names []string
	if t.Has(Notes) {
		names = append(names, "notes")
	}
	if t.Has(Media) {
		names = append(names, "media")
	}
	if t.Has(Reminders) {
		names = append(names, "reminders")
	}
	return strings.Join(names, "|")
}

// listener accumulates changes until its owner drains them.
type listener struct {
	mask    Table
	mu      sync.Mutex
	pending Table
	signal  chan struct{} // buffered(1); set when pending is non-zero
}

func (l *listener) notify(changed Table) {
	if !l.mask.Has(changed) {
		return
	}
	l.mu.Lock()
	l.pending |= changed & l.mask
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
		// A wakeup is already queued; pending carries the new bits.
	}
}

func (l *listener) drain() Table {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.pending
	l.pending = 0
	return t
}

// Feed fans out table change notifications to registered listeners.
// Publish never blocks: notifications to a busy listener are merged.
type Feed struct {
	mu        sync.RWMutex
	listeners map[*listener]struct{}
	onActive  func(active bool)
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{listeners: make(map[*listener]struct{})}
}

// Publish announces that the given tables changed.
func (f *Feed) Publish(changed Table) {
	if changed == 0 {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for l := range f.listeners {
		l.notify(changed)
	}
}

// Listeners returns the number of registered listeners.
func (f *Feed) Listeners() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.listeners)
}

// OnActive registers fn to be called with true when the feed gains its
// first listener and with false when it loses its last one. fn runs with
// the feed locked and must not call back into it.
func (f *Feed) OnActive(fn func(active bool)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onActive = fn
}

func (f *Feed) listen(mask Table) (*listener, func()) {
	l := &listener{mask: mask, signal: make(chan struct{}, 1)}

	f.mu.Lock()
	f.listeners[l] = struct{}{}
	if len(f.listeners) == 1 && f.onActive != nil {
		f.onActive(true)
	}
	f.mu.Unlock()

	var once sync.Once
	return l, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.listeners, l)
			if len(f.listeners) == 0 && f.onActive != nil {
				f.onActive(false)
			}
		})
	}
}
