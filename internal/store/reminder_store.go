package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/notekeeper/internal/live"
	"github.com/nhle/notekeeper/internal/model"
)

const reminderColumns = `id, note_id, reminder_datetime`

// reminderRow mirrors a reminders table row.
type reminderRow struct {
	ID       int64 `db:"id"`
	NoteID   int64 `db:"note_id"`
	DateTime int64 `db:"reminder_datetime"`
}

func (r reminderRow) toModel() model.Reminder {
	return model.Reminder{ID: r.ID, NoteID: r.NoteID, At: fromMillis(r.DateTime)}
}

func toReminders(rows []reminderRow) []model.Reminder {
	reminders := make([]model.Reminder, 0, len(rows))
	for _, r := range rows {
		reminders = append(reminders, r.toModel())
	}
	return reminders
}

// InsertReminder stores a reminder and returns its ID. The owning note
// must exist.
func (q *queries) InsertReminder(ctx context.Context, r model.Reminder) (int64, error) {
	result, err := q.ext.ExecContext(ctx,
		"INSERT INTO reminders (note_id, reminder_datetime) VALUES (?, ?)",
		r.NoteID, toMillis(r.At),
	)
	if err != nil {
		return 0, wrap(fmt.Sprintf("inserting reminder for note %d", r.NoteID), err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, wrap("reading inserted reminder id", err)
	}
	q.touched |= live.Reminders
	return id, nil
}

// DeleteReminder removes a reminder by ID.
func (q *queries) DeleteReminder(ctx context.Context, id int64) error {
	op := fmt.Sprintf("deleting reminder %d", id)
	if err := q.execOne(ctx, op, "DELETE FROM reminders WHERE id = ?", id); err != nil {
		return err
	}
	q.touched |= live.Reminders
	return nil
}

// DeleteRemindersForNote removes all reminders of a note and returns their
// IDs. A note without reminders is not an error.
func (q *queries) DeleteRemindersForNote(ctx context.Context, noteID int64) ([]int64, error) {
	var ids []int64
	err := sqlx.SelectContext(ctx, q.ext, &ids,
		"SELECT id FROM reminders WHERE note_id = ? ORDER BY id", noteID)
	if err != nil {
		return nil, wrap(fmt.Sprintf("listing reminders of note %d", noteID), err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = q.ext.ExecContext(ctx, "DELETE FROM reminders WHERE note_id = ?", noteID)
	if err != nil {
		return nil, wrap(fmt.Sprintf("deleting reminders of note %d", noteID), err)
	}
	q.touched |= live.Reminders
	return ids, nil
}

// ListReminders returns every reminder ordered by time.
func (q *queries) ListReminders(ctx context.Context) ([]model.Reminder, error) {
	var rows []reminderRow
	err := sqlx.SelectContext(ctx, q.ext, &rows,
		"SELECT "+reminderColumns+" FROM reminders ORDER BY reminder_datetime, id")
	if err != nil {
		return nil, wrap("querying reminders", err)
	}
	return toReminders(rows), nil
}

// ListRemindersForNote returns the reminders of a note ordered by time.
func (q *queries) ListRemindersForNote(ctx context.Context, noteID int64) ([]model.Reminder, error) {
	var rows []reminderRow
	err := sqlx.SelectContext(ctx, q.ext, &rows, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE note_id = ?
		ORDER BY reminder_datetime, id`, noteID)
	if err != nil {
		return nil, wrap(fmt.Sprintf("querying reminders for note %d", noteID), err)
	}
	return toReminders(rows), nil
}
