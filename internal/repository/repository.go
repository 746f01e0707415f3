// Package repository is the single domain-facing gateway to the note store.
//
// A process constructs one Repository at start-up, after opening the store,
// and passes it by reference to every consumer. A nil or zero Repository
// reports ErrNotInitialized instead of touching storage.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/notekeeper/internal/live"
	"github.com/nhle/notekeeper/internal/model"
	"github.com/nhle/notekeeper/internal/store"
)

// ErrNotInitialized is returned when a Repository is used before it has
// been constructed with a store.
var ErrNotInitialized = errors.New("repository not initialized")

// ReminderListener reacts to reminders being created or removed, typically
// by scheduling or cancelling an alarm. Calls happen after the change has
// been committed.
type ReminderListener interface {
	ReminderScheduled(r model.Reminder)
	ReminderCancelled(id int64)
}

// Option configures a Repository.
type Option func(*Repository)

// WithReminderListener registers the collaborator told about reminder
// changes.
func WithReminderListener(l ReminderListener) Option {
	return func(r *Repository) { r.listener = l }
}

// WithClock overrides the time source used for registration dates.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// Repository aggregates note, media and reminder access behind one API.
// It holds no state besides the store handle.
type Repository struct {
	store    store.Store
	listener ReminderListener
	now      func() time.Time
}

// New creates a Repository over an opened store.
func New(s store.Store, opts ...Option) *Repository {
	r := &Repository{store: s, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) ready() error {
	if r == nil || r.store == nil {
		return ErrNotInitialized
	}
	return nil
}

// === Queries ===

// GetAllNotes streams plain notes ordered by registration date, oldest first.
func (r *Repository) GetAllNotes() (*live.Query[[]model.Note], error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.store.ObserveNotes(), nil
}

// GetAllTasks streams tasks ordered by due date, earliest first, with
// undated tasks last.
func (r *Repository) GetAllTasks() (*live.Query[[]model.Note], error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.store.ObserveTasks(), nil
}

// SearchNotesAndTasks streams notes and tasks whose title or description
// contains query, ignoring case.
func (r *Repository) SearchNotesAndTasks(query string) (*live.Query[[]model.Note], error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.store.ObserveSearch(query), nil
}

// GetNoteDetails streams a note with its media and reminders. The stream
// emits nil when the note does not exist.
func (r *Repository) GetNoteDetails(id int64) (*live.Query[*model.NoteWithDetails], error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.store.ObserveNoteWithDetails(id), nil
}

// GetAllMedia streams every stored attachment.
func (r *Repository) GetAllMedia() (*live.Query[[]model.Media], error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.store.ObserveMedia(), nil
}

// === Notes ===

// SaveNote inserts a new note or replaces an existing one and returns its
// ID. A blank title is rejected with a *model.ValidationError. Task-only
// fields are cleared on plain notes.
func (r *Repository) SaveNote(ctx context.Context, note model.Note) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if err := note.Validate(); err != nil {
		return 0, err
	}

	if note.RegistrationDate.IsZero() {
		note.RegistrationDate = r.now()
	}
	note = note.Normalized()

	id, err := r.store.UpsertNote(ctx, note)
	if err != nil {
		return 0, fmt.Errorf("saving note: %w", err)
	}
	return id, nil
}

// GetNote returns a single note by ID. A missing note is reported with an
// error that satisfies store.IsNotFound.
func (r *Repository) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.store.GetNote(ctx, id)
}

// SetTaskCompleted sets the completion state of a task. Plain notes are
// left untouched.
func (r *Repository) SetTaskCompleted(ctx context.Context, note model.Note, completed bool) error {
	if err := r.ready(); err != nil {
		return err
	}
	if !note.IsTask {
		return nil
	}
	if err := r.store.SetNoteCompleted(ctx, note.ID, completed); err != nil {
		return fmt.Errorf("updating task completion: %w", err)
	}
	return nil
}

// ToggleTaskCompletion flips the completion state of a task.
func (r *Repository) ToggleTaskCompletion(ctx context.Context, note model.Note) error {
	return r.SetTaskCompleted(ctx, note, !note.IsCompleted)
}

// DeleteNote removes a note together with its reminders and media. The
// reminders go first, then the media, then the note, all in one
// transaction: on failure nothing is removed.
func (r *Repository) DeleteNote(ctx context.Context, note model.Note) error {
	return r.DeleteNoteByID(ctx, note.ID)
}

// DeleteNoteByID is DeleteNote for callers holding only the ID.
func (r *Repository) DeleteNoteByID(ctx context.Context, id int64) error {
	if err := r.ready(); err != nil {
		return err
	}

	var cancelled []int64
	err := r.store.InTx(ctx, func(tx store.Tx) error {
		ids, err := tx.DeleteRemindersForNote(ctx, id)
		if err != nil {
			return err
		}

		media, err := tx.ListMediaForNote(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteMediaList(ctx, media); err != nil {
			return err
		}

		if err := tx.DeleteNote(ctx, id); err != nil {
			return err
		}
		cancelled = ids
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting note %d: %w", id, err)
	}

	slog.Info("repository: note deleted", "id", id, "reminders", len(cancelled))
	if r.listener != nil {
		for _, rid := range cancelled {
			r.listener.ReminderCancelled(rid)
		}
	}
	return nil
}

// === Media ===

// AddMedia attaches a file to its note and returns the media ID.
func (r *Repository) AddMedia(ctx context.Context, m model.Media) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}
	id, err := r.store.InsertMedia(ctx, m)
	if err != nil {
		return 0, fmt.Errorf("adding media: %w", err)
	}
	return id, nil
}

// DeleteMedia removes an attachment.
func (r *Repository) DeleteMedia(ctx context.Context, m model.Media) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := r.store.DeleteMedia(ctx, m.ID); err != nil {
		return fmt.Errorf("removing media: %w", err)
	}
	return nil
}

// === Reminders ===

// AddReminder stores a reminder, tells the listener to schedule it, and
// returns its ID.
func (r *Repository) AddReminder(ctx context.Context, rem model.Reminder) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if err := rem.Validate(); err != nil {
		return 0, err
	}
	rem = rem.Normalized()

	id, err := r.store.InsertReminder(ctx, rem)
	if err != nil {
		return 0, fmt.Errorf("adding reminder: %w", err)
	}

	rem.ID = id
	if r.listener != nil {
		r.listener.ReminderScheduled(rem)
	}
	return id, nil
}

// DeleteReminder removes a reminder and tells the listener to cancel it.
func (r *Repository) DeleteReminder(ctx context.Context, rem model.Reminder) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := r.store.DeleteReminder(ctx, rem.ID); err != nil {
		return fmt.Errorf("removing reminder: %w", err)
	}
	if r.listener != nil {
		r.listener.ReminderCancelled(rem.ID)
	}
	return nil
}

// RescheduleReminders announces every reminder still in the future to the
// listener, for use after the scheduler has lost its state (e.g. a
// restart). It returns how many reminders were announced.
func (r *Repository) RescheduleReminders(ctx context.Context) (int, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}

	reminders, err := r.store.ListReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading reminders: %w", err)
	}

	now := r.now()
	count := 0
	for _, rem := range reminders {
		if !rem.At.After(now) {
			continue
		}
		if r.listener != nil {
			r.listener.ReminderScheduled(rem)
		}
		count++
	}

	slog.Info("repository: reminders rescheduled", "count", count)
	return count, nil
}
