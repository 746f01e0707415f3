package store

import (
	"context"

	"github.com/nhle/notekeeper/internal/live"
	"github.com/nhle/notekeeper/internal/model"
)

// Single-statement writes on SQLiteStore run as their own unit of work so
// the change feed is published after commit. Reads go straight to the pool.

func (s *SQLiteStore) UpsertNote(ctx context.Context, note model.Note) (int64, error) {
	var id int64
	err := s.InTx(ctx, func(tx Tx) error {
		var err error
		id, err = tx.UpsertNote(ctx, note)
		return err
	})
	return id, err
}

func (s *SQLiteStore) DeleteNote(ctx context.Context, id int64) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.DeleteNote(ctx, id) })
}

func (s *SQLiteStore) SetNoteCompleted(ctx context.Context, id int64, completed bool) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.SetNoteCompleted(ctx, id, completed) })
}

func (s *SQLiteStore) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	return s.read().GetNote(ctx, id)
}

func (s *SQLiteStore) ListNotes(ctx context.Context) ([]model.Note, error) {
	return s.read().ListNotes(ctx)
}

func (s *SQLiteStore) ListTasks(ctx context.Context) ([]model.Note, error) {
	return s.read().ListTasks(ctx)
}

func (s *SQLiteStore) SearchNotes(ctx context.Context, query string) ([]model.Note, error) {
	return s.read().SearchNotes(ctx, query)
}

// GetNoteWithDetails reads the note and its children in one transaction so
// the three reads see the same state.
func (s *SQLiteStore) GetNoteWithDetails(ctx context.Context, id int64) (*model.NoteWithDetails, error) {
	var details *model.NoteWithDetails
	err := s.InTx(ctx, func(tx Tx) error {
		var err error
		details, err = tx.GetNoteWithDetails(ctx, id)
		return err
	})
	return details, err
}

func (s *SQLiteStore) InsertMedia(ctx context.Context, media model.Media) (int64, error) {
	var id int64
	err := s.InTx(ctx, func(tx Tx) error {
		var err error
		id, err = tx.InsertMedia(ctx, media)
		return err
	})
	return id, err
}

func (s *SQLiteStore) DeleteMedia(ctx context.Context, id int64) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.DeleteMedia(ctx, id) })
}

func (s *SQLiteStore) DeleteMediaList(ctx context.Context, media []model.Media) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.DeleteMediaList(ctx, media) })
}

func (s *SQLiteStore) ListMedia(ctx context.Context) ([]model.Media, error) {
	return s.read().ListMedia(ctx)
}

func (s *SQLiteStore) ListMediaForNote(ctx context.Context, noteID int64) ([]model.Media, error) {
	return s.read().ListMediaForNote(ctx, noteID)
}

func (s *SQLiteStore) InsertReminder(ctx context.Context, reminder model.Reminder) (int64, error) {
	var id int64
	err := s.InTx(ctx, func(tx Tx) error {
		var err error
		id, err = tx.InsertReminder(ctx, reminder)
		return err
	})
	return id, err
}

func (s *SQLiteStore) DeleteReminder(ctx context.Context, id int64) error {
	return s.InTx(ctx, func(tx Tx) error { return tx.DeleteReminder(ctx, id) })
}

func (s *SQLiteStore) DeleteRemindersForNote(ctx context.Context, noteID int64) ([]int64, error) {
	var ids []int64
	err := s.InTx(ctx, func(tx Tx) error {
		var err error
		ids, err = tx.DeleteRemindersForNote(ctx, noteID)
		return err
	})
	return ids, err
}

func (s *SQLiteStore) ListReminders(ctx context.Context) ([]model.Reminder, error) {
	return s.read().ListReminders(ctx)
}

func (s *SQLiteStore) ListRemindersForNote(ctx context.Context, noteID int64) ([]model.Reminder, error) {
	return s.read().ListRemindersForNote(ctx, noteID)
}

// === Reactive queries ===

// ObserveNotes streams plain notes ordered by registration date.
func (s *SQLiteStore) ObserveNotes() *live.Query[[]model.Note] {
	return live.NewQuery("notes", s.feed, live.Notes, s.ListNotes)
}

// ObserveTasks streams tasks ordered by due date, undated tasks last.
func (s *SQLiteStore) ObserveTasks() *live.Query[[]model.Note] {
	return live.NewQuery("tasks", s.feed, live.Notes, s.ListTasks)
}

// ObserveSearch streams the notes and tasks matching query.
func (s *SQLiteStore) ObserveSearch(query string) *live.Query[[]model.Note] {
	return live.NewQuery("search", s.feed, live.Notes,
		func(ctx context.Context) ([]model.Note, error) {
			return s.SearchNotes(ctx, query)
		})
}

// ObserveNoteWithDetails streams a note with its media and reminders. It
// emits nil once the note no longer exists.
func (s *SQLiteStore) ObserveNoteWithDetails(id int64) *live.Query[*model.NoteWithDetails] {
	return live.NewQuery("note-details", s.feed, live.AllTables,
		func(ctx context.Context) (*model.NoteWithDetails, error) {
			return s.GetNoteWithDetails(ctx, id)
		})
}

// ObserveMedia streams every stored attachment.
func (s *SQLiteStore) ObserveMedia() *live.Query[[]model.Media] {
	return live.NewQuery("media", s.feed, live.Media, s.ListMedia)
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Tx    = (*queries)(nil)
)
