package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
//
// Timestamps are unix milliseconds. Child tables reference notes without
// ON DELETE CASCADE: callers remove reminders and media before the note.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	title             TEXT NOT NULL,
	description       TEXT,
	is_task           INTEGER NOT NULL DEFAULT 0 CHECK(is_task IN (0, 1)),
	is_completed      INTEGER NOT NULL DEFAULT 0 CHECK(is_completed IN (0, 1)),
	task_due_date     INTEGER,
	registration_date INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS media (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	note_id        INTEGER NOT NULL REFERENCES notes(id),
	file_path      TEXT NOT NULL,
	media_type     TEXT NOT NULL CHECK(media_type IN ('IMAGE', 'VIDEO', 'AUDIO')),
	description    TEXT,
	thumbnail_path TEXT
);

CREATE TABLE IF NOT EXISTS reminders (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	note_id           INTEGER NOT NULL REFERENCES notes(id),
	reminder_datetime INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_is_task_registration ON notes(is_task, registration_date);
CREATE INDEX IF NOT EXISTS idx_notes_is_task_due ON notes(is_task, task_due_date);
CREATE INDEX IF NOT EXISTS idx_media_note_id ON media(note_id);
CREATE INDEX IF NOT EXISTS idx_reminders_note_id ON reminders(note_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_reminders_datetime ON reminders(reminder_datetime);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
