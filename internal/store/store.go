package store

import (
	"context"

	"github.com/nhle/notekeeper/internal/live"
	"github.com/nhle/notekeeper/internal/model"
)

// Notes is the data access surface of the notes table.
type Notes interface {
	// UpsertNote inserts the note when its ID is zero and replaces the row
	// with the same ID otherwise. It returns the resulting ID.
	UpsertNote(ctx context.Context, note model.Note) (int64, error)
	DeleteNote(ctx context.Context, id int64) error
	SetNoteCompleted(ctx context.Context, id int64, completed bool) error

	GetNote(ctx context.Context, id int64) (*model.Note, error)
	ListNotes(ctx context.Context) ([]model.Note, error)
	ListTasks(ctx context.Context) ([]model.Note, error)
	SearchNotes(ctx context.Context, query string) ([]model.Note, error)
	// GetNoteWithDetails returns nil, nil when the note does not exist.
	GetNoteWithDetails(ctx context.Context, id int64) (*model.NoteWithDetails, error)
}

// MediaFiles is the data access surface of the media table.
type MediaFiles interface {
	InsertMedia(ctx context.Context, media model.Media) (int64, error)
	DeleteMedia(ctx context.Context, id int64) error
	// DeleteMediaList removes every listed row or none of them.
	DeleteMediaList(ctx context.Context, media []model.Media) error

	ListMedia(ctx context.Context) ([]model.Media, error)
	ListMediaForNote(ctx context.Context, noteID int64) ([]model.Media, error)
}

// Reminders is the data access surface of the reminders table.
type Reminders interface {
	InsertReminder(ctx context.Context, reminder model.Reminder) (int64, error)
	DeleteReminder(ctx context.Context, id int64) error
	// DeleteRemindersForNote returns the IDs of the removed reminders.
	DeleteRemindersForNote(ctx context.Context, noteID int64) ([]int64, error)

	ListReminders(ctx context.Context) ([]model.Reminder, error)
	ListRemindersForNote(ctx context.Context, noteID int64) ([]model.Reminder, error)
}

// Tx is the set of operations available inside a unit of work.
type Tx interface {
	Notes
	MediaFiles
	Reminders
}

// Store defines the persistence interface for notes, their media and their
// reminders, including reactive queries over them.
type Store interface {
	Tx

	// InTx runs fn inside a single transaction. Either every write made
	// through tx is committed or none is. fn must only use tx.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// === Reactive queries ===

	ObserveNotes() *live.Query[[]model.Note]
	ObserveTasks() *live.Query[[]model.Note]
	ObserveSearch(query string) *live.Query[[]model.Note]
	ObserveNoteWithDetails(id int64) *live.Query[*model.NoteWithDetails]
	ObserveMedia() *live.Query[[]model.Media]

	Close() error
}
