package model

import "time"

// Reminder is a point in time at which the owning note should be surfaced
// by an external notification scheduler.
type Reminder struct {
	ID     int64     `json:"id" db:"id" yaml:"id"`
	NoteID int64     `json:"note_id" db:"note_id" yaml:"note_id"`
	At     time.Time `json:"reminder_datetime" db:"reminder_datetime" yaml:"at"`
}

// Validate checks the fields required to store a reminder.
func (r Reminder) Validate() error {
	if r.NoteID == 0 {
		return &ValidationError{Field: "note_id", Message: "reminder must belong to a note"}
	}
	if r.At.IsZero() {
		return &ValidationError{Field: "reminder_datetime", Message: "reminder time must be set"}
	}
	return nil
}

// Normalized returns a copy with At reduced to what the store keeps.
func (r Reminder) Normalized() Reminder {
	r.At = StoredTime(r.At)
	return r
}
