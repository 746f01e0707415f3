package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/notekeeper/internal/live"
	"github.com/nhle/notekeeper/internal/model"
)

const noteColumns = `id, title, description, is_task, is_completed, task_due_date, registration_date`

// noteRow mirrors a notes table row.
type noteRow struct {
	ID               int64          `db:"id"`
	Title            string         `db:"title"`
	Description      sql.NullString `db:"description"`
	IsTask           int            `db:"is_task"`
	IsCompleted      int            `db:"is_completed"`
	TaskDueDate      sql.NullInt64  `db:"task_due_date"`
	RegistrationDate int64          `db:"registration_date"`
}

func (r noteRow) toModel() model.Note {
	return model.Note{
		ID:               r.ID,
		Title:            r.Title,
		Description:      r.Description.String,
		IsTask:           r.IsTask != 0,
		IsCompleted:      r.IsCompleted != 0,
		TaskDueDate:      timePtr(r.TaskDueDate),
		RegistrationDate: fromMillis(r.RegistrationDate),
	}
}

func toNotes(rows []noteRow) []model.Note {
	notes := make([]model.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.toModel())
	}
	return notes
}

// UpsertNote inserts or replaces a note.
func (q *queries) UpsertNote(ctx context.Context, note model.Note) (int64, error) {
	if note.RegistrationDate.IsZero() {
		note.RegistrationDate = time.Now()
	}

	args := []interface{}{
		note.Title, nullString(note.Description),
		boolToInt(note.IsTask), boolToInt(note.IsCompleted),
		nullMillis(note.TaskDueDate), toMillis(note.RegistrationDate),
	}

	if note.IsNew() {
		result, err := q.ext.ExecContext(ctx, `
			INSERT INTO notes (
				title, description, is_task, is_completed,
				task_due_date, registration_date
			) VALUES (?, ?, ?, ?, ?, ?)`,
			args...,
		)
		if err != nil {
			return 0, wrap("inserting note", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return 0, wrap("reading inserted note id", err)
		}
		q.touched |= live.Notes
		return id, nil
	}

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO notes (
			id, title, description, is_task, is_completed,
			task_due_date, registration_date
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			is_task = excluded.is_task,
			is_completed = excluded.is_completed,
			task_due_date = excluded.task_due_date,
			registration_date = excluded.registration_date`,
		append([]interface{}{note.ID}, args...)...,
	)
	if err != nil {
		return 0, wrap(fmt.Sprintf("updating note %d", note.ID), err)
	}
	q.touched |= live.Notes
	return note.ID, nil
}

// DeleteNote removes a note by ID. Its media and reminders must already be
// gone; the foreign keys reject orphaning them.
func (q *queries) DeleteNote(ctx context.Context, id int64) error {
	op := fmt.Sprintf("deleting note %d", id)
	if err := q.execOne(ctx, op, "DELETE FROM notes WHERE id = ?", id); err != nil {
		return err
	}
	q.touched |= live.Notes
	return nil
}

// SetNoteCompleted sets the completion flag of a note.
func (q *queries) SetNoteCompleted(ctx context.Context, id int64, completed bool) error {
	op := fmt.Sprintf("setting completion of note %d", id)
	err := q.execOne(ctx, op,
		"UPDATE notes SET is_completed = ? WHERE id = ?",
		boolToInt(completed), id,
	)
	if err != nil {
		return err
	}
	q.touched |= live.Notes
	return nil
}

// GetNote retrieves a single note by ID.
func (q *queries) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	var row noteRow
	err := sqlx.GetContext(ctx, q.ext, &row,
		"SELECT "+noteColumns+" FROM notes WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &StorageError{Op: fmt.Sprintf("getting note %d", id), Err: ErrNotFound}
	}
	if err != nil {
		return nil, wrap(fmt.Sprintf("getting note %d", id), err)
	}
	note := row.toModel()
	return &note, nil
}

// ListNotes returns plain notes, oldest registration first.
func (q *queries) ListNotes(ctx context.Context) ([]model.Note, error) {
	var rows []noteRow
	err := sqlx.SelectContext(ctx, q.ext, &rows, `
		SELECT `+noteColumns+` FROM notes
		WHERE is_task = 0
		ORDER BY registration_date ASC, id ASC`)
	if err != nil {
		return nil, wrap("querying notes", err)
	}
	return toNotes(rows), nil
}

// ListTasks returns tasks ordered by due date, earliest first. Tasks
// without a due date come last.
func (q *queries) ListTasks(ctx context.Context) ([]model.Note, error) {
	var rows []noteRow
	err := sqlx.SelectContext(ctx, q.ext, &rows, `
		SELECT `+noteColumns+` FROM notes
		WHERE is_task = 1
		ORDER BY task_due_date IS NULL, task_due_date ASC, id ASC`)
	if err != nil {
		return nil, wrap("querying tasks", err)
	}
	return toNotes(rows), nil
}

// SearchNotes returns notes and tasks whose title or description contains
// query, ignoring case in any script.
func (q *queries) SearchNotes(ctx context.Context, query string) ([]model.Note, error) {
	pattern := "%" + escapeLike(foldText(query)) + "%"

	var rows []noteRow
	err := sqlx.SelectContext(ctx, q.ext, &rows, `
		SELECT `+noteColumns+` FROM notes
		WHERE `+foldFunc+`(title) LIKE ? ESCAPE '\'
		   OR `+foldFunc+`(description) LIKE ? ESCAPE '\'
		ORDER BY registration_date ASC, id ASC`,
		pattern, pattern,
	)
	if err != nil {
		return nil, wrap(fmt.Sprintf("searching notes for %q", query), err)
	}
	return toNotes(rows), nil
}

// GetNoteWithDetails joins a note with its media and reminders.
func (q *queries) GetNoteWithDetails(ctx context.Context, id int64) (*model.NoteWithDetails, error) {
	note, err := q.GetNote(ctx, id)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	media, err := q.ListMediaForNote(ctx, id)
	if err != nil {
		return nil, err
	}
	reminders, err := q.ListRemindersForNote(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.NoteWithDetails{
		Note:      *note,
		Media:     media,
		Reminders: reminders,
	}, nil
}

// escapeLike escapes LIKE wildcards so query matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
