package model

import (
	"strings"
	"time"
)

// Note is a user-created record: either a freeform note or a task.
type Note struct {
	// ID is assigned by the store. Zero means the note has not been saved yet.
	ID int64 `json:"id" db:"id" yaml:"id"`

	// Title must not be blank when the note is saved.
	Title string `json:"title" db:"title" yaml:"title"`

	Description string `json:"description,omitempty" db:"description" yaml:"description,omitempty"`

	// IsTask marks the note as a task. IsCompleted and TaskDueDate are only
	// meaningful for tasks.
	IsTask      bool       `json:"is_task" db:"is_task" yaml:"is_task"`
	IsCompleted bool       `json:"is_completed" db:"is_completed" yaml:"is_completed"`
	TaskDueDate *time.Time `json:"task_due_date,omitempty" db:"task_due_date" yaml:"task_due_date,omitempty"`

	// RegistrationDate is set when the note is first saved.
	RegistrationDate time.Time `json:"registration_date" db:"registration_date" yaml:"registration_date"`
}

// IsNew reports whether the note has never been persisted.
func (n Note) IsNew() bool { return n.ID == 0 }

// IsOverdue reports whether an open task is past its due date.
func (n Note) IsOverdue(now time.Time) bool {
	return n.IsTask && !n.IsCompleted && n.TaskDueDate != nil && n.TaskDueDate.Before(now)
}

// Validate checks the fields required to save a note.
func (n Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return &ValidationError{Field: "title", Message: "title must not be empty"}
	}
	return nil
}

// Normalized returns a copy with task-only fields cleared on plain notes and
// times reduced to what the store keeps, so a saved note reads back equal.
func (n Note) Normalized() Note {
	if !n.IsTask {
		n.IsCompleted = false
		n.TaskDueDate = nil
	}
	if n.TaskDueDate != nil {
		due := StoredTime(*n.TaskDueDate)
		n.TaskDueDate = &due
	}
	n.RegistrationDate = StoredTime(n.RegistrationDate)
	return n
}

// StoredTime returns t as the store keeps it: whole milliseconds in UTC.
func StoredTime(t time.Time) time.Time {
	return t.Truncate(time.Millisecond).UTC()
}

// NoteWithDetails is a note joined with its attachments and reminders.
// It is computed on read and never stored.
type NoteWithDetails struct {
	Note      Note       `json:"note" yaml:"note"`
	Media     []Media    `json:"media" yaml:"media"`
	Reminders []Reminder `json:"reminders" yaml:"reminders"`
}
