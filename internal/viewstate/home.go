package viewstate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notekeeper/internal/live"
	"github.com/nhle/notekeeper/internal/model"
	"github.com/nhle/notekeeper/internal/repository"
)

// Tab selects which list the home screen shows.
type Tab int

const (
	TabNotes Tab = iota
	TabTasks
)

func (t Tab) String() string {
	if t == TabTasks {
		return "tasks"
	}
	return "notes"
}

// HomeState is what the home screen renders.
type HomeState struct {
	Items   []model.Note
	Tab     Tab
	Loading bool

	// Err is the most recent stream or action failure.
	Err error
}

// HomeStateMsg is the tea.Msg produced by Home.WaitForState.
type HomeStateMsg struct {
	State HomeState
}

// Home combines the notes and tasks streams with the selected tab.
type Home struct {
	repo *repository.Repository
	pub  *publisher[HomeState]

	mu        sync.Mutex
	notes     []model.Note
	tasks     []model.Note
	haveNotes bool
	haveTasks bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHome subscribes to the notes and tasks streams. The controller stays
// Loading until both have emitted.
func NewHome(ctx context.Context, repo *repository.Repository) (*Home, error) {
	notesQ, err := repo.GetAllNotes()
	if err != nil {
		return nil, err
	}
	tasksQ, err := repo.GetAllTasks()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Home{
		repo:   repo,
		pub:    newPublisher(HomeState{Tab: TabNotes, Loading: true}),
		cancel: cancel,
	}

	h.wg.Add(1)
	go h.run(ctx, notesQ.Subscribe(ctx), tasksQ.Subscribe(ctx))
	return h, nil
}

func (h *Home) run(ctx context.Context, notes, tasks <-chan live.Result[[]model.Note]) {
	defer h.wg.Done()
	for notes != nil || tasks != nil {
		select {
		case r, ok := <-notes:
			if !ok {
				notes = nil
				continue
			}
			h.apply(r, TabNotes)
		case r, ok := <-tasks:
			if !ok {
				tasks = nil
				continue
			}
			h.apply(r, TabTasks)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Home) apply(r live.Result[[]model.Note], list Tab) {
	h.mu.Lock()
	if r.Err == nil {
		if list == TabNotes {
			h.notes, h.haveNotes = r.Value, true
		} else {
			h.tasks, h.haveTasks = r.Value, true
		}
	}
	h.mu.Unlock()

	h.pub.update(func(s *HomeState) {
		if r.Err != nil {
			s.Err = r.Err
		}
		h.fill(s)
	})
}

// fill sets the list and loading flag for the state's tab.
func (h *Home) fill(s *HomeState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s.Loading = !(h.haveNotes && h.haveTasks)
	if s.Tab == TabTasks {
		s.Items = h.tasks
	} else {
		s.Items = h.notes
	}
}

// State returns the current state.
func (h *Home) State() HomeState { return h.pub.get() }

// Updates delivers new states. Only the latest unread state is kept.
func (h *Home) Updates() <-chan HomeState { return h.pub.updates }

// WaitForState returns a tea.Cmd that yields the next HomeStateMsg.
func (h *Home) WaitForState() tea.Cmd {
	return wait(h.pub, func(s HomeState) tea.Msg { return HomeStateMsg{State: s} })
}

// SelectTab switches the displayed list.
func (h *Home) SelectTab(tab Tab) {
	h.pub.update(func(s *HomeState) {
		s.Tab = tab
		h.fill(s)
	})
}

// ToggleTaskCompletion flips a task's completion. Plain notes are ignored.
func (h *Home) ToggleTaskCompletion(ctx context.Context, note model.Note) error {
	if err := h.repo.ToggleTaskCompletion(ctx, note); err != nil {
		h.fail(fmt.Errorf("toggling %q: %w", note.Title, err))
		return err
	}
	return nil
}

// DeleteNote removes a note or task with its attachments and reminders.
func (h *Home) DeleteNote(ctx context.Context, note model.Note) error {
	if err := h.repo.DeleteNote(ctx, note); err != nil {
		h.fail(fmt.Errorf("deleting %q: %w", note.Title, err))
		return err
	}
	return nil
}

func (h *Home) fail(err error) {
	slog.Warn("viewstate: home action failed", "error", err)
	h.pub.update(func(s *HomeState) { s.Err = err })
}

// Close stops the stream subscriptions and closes Updates.
func (h *Home) Close() {
	h.cancel()
	h.wg.Wait()
	h.pub.close()
}
