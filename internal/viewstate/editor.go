package viewstate

import (
	"context"
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/notekeeper/internal/model"
	"github.com/nhle/notekeeper/internal/repository"
)

// EditorState is the note being edited. NoteID is zero until the note has
// been saved once. Media and reminders with a zero ID exist only in the
// editor and are stored on the next Save.
type EditorState struct {
	NoteID           int64
	Title            string
	Description      string
	IsTask           bool
	IsCompleted      bool
	TaskDueDate      *time.Time
	RegistrationDate time.Time

	Media     []model.Media
	Reminders []model.Reminder

	Saved   bool
	Deleted bool
	Err     error
}

// note builds the model note from the edited fields.
func (s EditorState) note() model.Note {
	return model.Note{
		ID:               s.NoteID,
		Title:            s.Title,
		Description:      s.Description,
		IsTask:           s.IsTask,
		IsCompleted:      s.IsCompleted,
		TaskDueDate:      s.TaskDueDate,
		RegistrationDate: s.RegistrationDate,
	}
}

// EditorStateMsg is the tea.Msg produced by Editor.WaitForState.
type EditorStateMsg struct {
	State EditorState
}

// Editor creates and edits a single note with its attachments and
// reminders. Edits stay local until Save.
type Editor struct {
	repo *repository.Repository
	pub  *publisher[EditorState]
}

// NewEditor returns an editor for a new, empty note.
func NewEditor(repo *repository.Repository) *Editor {
	return &Editor{repo: repo, pub: newPublisher(EditorState{})}
}

// State returns the current state.
func (e *Editor) State() EditorState { return e.pub.get() }

// Updates delivers new states. Only the latest unread state is kept.
func (e *Editor) Updates() <-chan EditorState { return e.pub.updates }

// WaitForState returns a tea.Cmd that yields the next EditorStateMsg.
func (e *Editor) WaitForState() tea.Cmd {
	return wait(e.pub, func(s EditorState) tea.Msg { return EditorStateMsg{State: s} })
}

// Close closes Updates.
func (e *Editor) Close() { e.pub.close() }

// Load replaces the editor contents with a stored note. Loading the note
// already being edited is a no-op.
func (e *Editor) Load(ctx context.Context, id int64) error {
	if id != 0 && e.State().NoteID == id {
		return nil
	}

	q, err := e.repo.GetNoteDetails(id)
	if err != nil {
		return e.fail(err)
	}
	details, err := q.Get(ctx)
	if err != nil {
		return e.fail(fmt.Errorf("loading note %d: %w", id, err))
	}
	if details == nil {
		return e.fail(fmt.Errorf("loading note %d: not found", id))
	}

	n := details.Note
	e.pub.update(func(s *EditorState) {
		*s = EditorState{
			NoteID:           n.ID,
			Title:            n.Title,
			Description:      n.Description,
			IsTask:           n.IsTask,
			IsCompleted:      n.IsCompleted,
			TaskDueDate:      n.TaskDueDate,
			RegistrationDate: n.RegistrationDate,
			Media:            details.Media,
			Reminders:        details.Reminders,
		}
	})
	return nil
}

func (e *Editor) SetTitle(title string) {
	e.pub.update(func(s *EditorState) { s.Title = title })
}

func (e *Editor) SetDescription(desc string) {
	e.pub.update(func(s *EditorState) { s.Description = desc })
}

func (e *Editor) SetIsTask(isTask bool) {
	e.pub.update(func(s *EditorState) { s.IsTask = isTask })
}

func (e *Editor) SetCompleted(done bool) {
	e.pub.update(func(s *EditorState) { s.IsCompleted = done })
}

func (e *Editor) SetDueDate(due *time.Time) {
	e.pub.update(func(s *EditorState) { s.TaskDueDate = due })
}

// AttachMedia adds an attachment that is stored on the next Save.
func (e *Editor) AttachMedia(path string, typ model.MediaType, description string) {
	m := model.Media{FilePath: path, Type: typ}
	if description != "" {
		m.Description = &description
	}
	e.pub.update(func(s *EditorState) {
		s.Media = append(slices.Clone(s.Media), m)
	})
}

// RemoveMedia drops the attachment at index i. Stored attachments are
// deleted right away.
func (e *Editor) RemoveMedia(ctx context.Context, i int) error {
	cur := e.State()
	if i < 0 || i >= len(cur.Media) {
		return fmt.Errorf("media index %d out of range", i)
	}
	m := cur.Media[i]
	if m.ID != 0 {
		if err := e.repo.DeleteMedia(ctx, m); err != nil {
			return e.fail(err)
		}
	}
	e.pub.update(func(s *EditorState) {
		s.Media = slices.Delete(slices.Clone(s.Media), i, i+1)
	})
	return nil
}

// AddReminder adds a reminder that is stored on the next Save.
func (e *Editor) AddReminder(at time.Time) {
	e.pub.update(func(s *EditorState) {
		rem := model.Reminder{NoteID: s.NoteID, At: at}.Normalized()
		s.Reminders = append(slices.Clone(s.Reminders), rem)
	})
}

// RemoveReminder drops the reminder at index i. Stored reminders are
// deleted and cancelled right away.
func (e *Editor) RemoveReminder(ctx context.Context, i int) error {
	cur := e.State()
	if i < 0 || i >= len(cur.Reminders) {
		return fmt.Errorf("reminder index %d out of range", i)
	}
	r := cur.Reminders[i]
	if r.ID != 0 {
		if err := e.repo.DeleteReminder(ctx, r); err != nil {
			return e.fail(err)
		}
	}
	e.pub.update(func(s *EditorState) {
		s.Reminders = slices.Delete(slices.Clone(s.Reminders), i, i+1)
	})
	return nil
}

// Save stores the note, then any attachments and reminders added since the
// last save. A blank title is reported without touching the store.
func (e *Editor) Save(ctx context.Context) error {
	cur := e.pub.update(func(s *EditorState) {
		s.Err = nil
		s.Saved = false
		if s.RegistrationDate.IsZero() {
			s.RegistrationDate = model.StoredTime(time.Now())
		}
	})

	note := cur.note()
	if err := note.Validate(); err != nil {
		return e.fail(err)
	}

	id, err := e.repo.SaveNote(ctx, note)
	if err != nil {
		return e.fail(err)
	}

	media := slices.Clone(cur.Media)
	for i := range media {
		if media[i].ID != 0 {
			continue
		}
		media[i].NoteID = id
		mid, err := e.repo.AddMedia(ctx, media[i])
		if err != nil {
			e.setStored(id, media, nil)
			return e.fail(err)
		}
		media[i].ID = mid
	}

	reminders := slices.Clone(cur.Reminders)
	for i := range reminders {
		if reminders[i].ID != 0 {
			continue
		}
		reminders[i].NoteID = id
		rid, err := e.repo.AddReminder(ctx, reminders[i])
		if err != nil {
			e.setStored(id, media, reminders)
			return e.fail(err)
		}
		reminders[i].ID = rid
	}

	e.setStored(id, media, reminders)
	e.pub.update(func(s *EditorState) { s.Saved = true })
	return nil
}

// setStored records the IDs assigned during Save. A nil list is left as is.
func (e *Editor) setStored(id int64, media []model.Media, reminders []model.Reminder) {
	e.pub.update(func(s *EditorState) {
		s.NoteID = id
		if media != nil {
			s.Media = media
		}
		if reminders != nil {
			s.Reminders = reminders
		}
	})
}

// Delete removes the edited note with its attachments and reminders and
// resets the editor. Unsaved notes are simply discarded.
func (e *Editor) Delete(ctx context.Context) error {
	id := e.State().NoteID
	if id != 0 {
		if err := e.repo.DeleteNoteByID(ctx, id); err != nil {
			return e.fail(err)
		}
	}
	e.pub.update(func(s *EditorState) { *s = EditorState{Deleted: true} })
	return nil
}

func (e *Editor) fail(err error) error {
	e.pub.update(func(s *EditorState) { s.Err = err })
	return err
}
