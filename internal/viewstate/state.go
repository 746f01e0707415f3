// Package viewstate holds headless screen controllers. Each controller
// keeps the state a screen renders, updates it from repository streams and
// user intents, and hands new states to a Bubble Tea program through
// WaitForState commands.
package viewstate

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// publisher owns a controller's current state and a latest-wins update
// channel. A reader that falls behind only sees the newest state.
type publisher[S any] struct {
	mu      sync.Mutex
	state   S
	updates chan S
	closed  bool
}

func newPublisher[S any](initial S) *publisher[S] {
	p := &publisher[S]{state: initial, updates: make(chan S, 1)}
	p.updates <- initial
	return p
}

func (p *publisher[S]) get() S {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// update applies fn to the state and publishes the result.
func (p *publisher[S]) update(fn func(s *S)) S {
	p.mu.Lock()
	defer p.mu.Unlock()

	fn(&p.state)
	if p.closed {
		return p.state
	}

	// Replace any state the reader has not picked up yet.
	select {
	case <-p.updates:
	default:
	}
	p.updates <- p.state
	return p.state
}

func (p *publisher[S]) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.updates)
}

// wait returns a tea.Cmd that blocks until the next state and wraps it
// with msg. It returns nil once the controller is closed.
func wait[S any](p *publisher[S], msg func(S) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-p.updates
		if !ok {
			return nil
		}
		return msg(s)
	}
}
