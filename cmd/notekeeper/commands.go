package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nhle/notekeeper/internal/model"
	"github.com/nhle/notekeeper/internal/viewstate"
)

// NotesCmd lists plain notes.
type NotesCmd struct{}

func (cmd *NotesCmd) Run(ctx context.Context, e *env) error {
	q, err := e.repo.GetAllNotes()
	if err != nil {
		return err
	}
	notes, err := q.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, renderNotes("Notes", notes, time.Now()))
	return nil
}

// TasksCmd lists tasks.
type TasksCmd struct{}

func (cmd *TasksCmd) Run(ctx context.Context, e *env) error {
	q, err := e.repo.GetAllTasks()
	if err != nil {
		return err
	}
	tasks, err := q.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, renderNotes("Tasks", tasks, time.Now()))
	return nil
}

// SearchCmd lists notes and tasks matching a query.
type SearchCmd struct {
	Query []string `arg:"" help:"Text to look for."`
}

func (cmd *SearchCmd) Run(ctx context.Context, e *env) error {
	query := strings.Join(cmd.Query, " ")
	q, err := e.repo.SearchNotesAndTasks(query)
	if err != nil {
		return err
	}
	found, err := q.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, renderNotes(fmt.Sprintf("Search %q", query), found, time.Now()))
	return nil
}

// ShowCmd prints one note with its attachments and reminders.
type ShowCmd struct {
	ID int64 `arg:"" help:"Note ID."`
}

func (cmd *ShowCmd) Run(ctx context.Context, e *env) error {
	q, err := e.repo.GetNoteDetails(cmd.ID)
	if err != nil {
		return err
	}
	details, err := q.Get(ctx)
	if err != nil {
		return err
	}
	if details == nil {
		return fmt.Errorf("note %d not found", cmd.ID)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(details)
}

// AddCmd creates a note or a task.
type AddCmd struct {
	Title       []string `arg:"" help:"Title of the note."`
	Description string   `short:"d" help:"Longer description."`
	Task        bool     `short:"t" help:"Create a task instead of a note."`
	Due         string   `help:"Due date for a task (2006-01-02 or 2006-01-02 15:04)."`
}

func (cmd *AddCmd) Run(ctx context.Context, e *env) error {
	note := model.Note{
		Title:       strings.Join(cmd.Title, " "),
		Description: cmd.Description,
		IsTask:      cmd.Task || cmd.Due != "",
	}
	if cmd.Due != "" {
		due, err := parseWhen(cmd.Due)
		if err != nil {
			return err
		}
		note.TaskDueDate = &due
	}

	id, err := e.repo.SaveNote(ctx, note)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d\n", id)
	return nil
}

// DoneCmd sets the completion state of a task.
type DoneCmd struct {
	ID   int64 `arg:"" help:"Task ID."`
	Undo bool  `help:"Reopen the task instead."`
}

func (cmd *DoneCmd) Run(ctx context.Context, e *env) error {
	note, err := e.repo.GetNote(ctx, cmd.ID)
	if err != nil {
		return err
	}
	if !note.IsTask {
		return fmt.Errorf("note %d is not a task", cmd.ID)
	}
	return e.repo.SetTaskCompleted(ctx, *note, !cmd.Undo)
}

// RmCmd deletes a note and everything attached to it.
type RmCmd struct {
	ID int64 `arg:"" help:"Note ID."`
}

func (cmd *RmCmd) Run(ctx context.Context, e *env) error {
	return e.repo.DeleteNoteByID(ctx, cmd.ID)
}

// AttachCmd attaches a file to a note.
type AttachCmd struct {
	ID          int64  `arg:"" help:"Note ID."`
	Path        string `arg:"" type:"path" help:"File to attach."`
	Type        string `short:"T" default:"image" enum:"image,video,audio" help:"Media type (image, video, audio)."`
	Description string `short:"d" help:"Caption for the attachment."`
	Thumbnail   string `type:"path" help:"Thumbnail image path."`
}

func (cmd *AttachCmd) Run(ctx context.Context, e *env) error {
	typ, err := model.ParseMediaType(cmd.Type)
	if err != nil {
		return err
	}
	m := model.Media{NoteID: cmd.ID, FilePath: cmd.Path, Type: typ}
	if cmd.Description != "" {
		m.Description = &cmd.Description
	}
	if cmd.Thumbnail != "" {
		m.ThumbnailPath = &cmd.Thumbnail
	}

	id, err := e.repo.AddMedia(ctx, m)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d\n", id)
	return nil
}

// MediaCmd lists all attachments.
type MediaCmd struct{}

func (cmd *MediaCmd) Run(ctx context.Context, e *env) error {
	q, err := e.repo.GetAllMedia()
	if err != nil {
		return err
	}
	media, err := q.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, renderMedia(media))
	return nil
}

// RemindCmd adds a reminder to a note.
type RemindCmd struct {
	ID   int64  `arg:"" help:"Note ID."`
	When string `arg:"" help:"Reminder time (2006-01-02 15:04, 2006-01-02 or RFC 3339)."`
}

func (cmd *RemindCmd) Run(ctx context.Context, e *env) error {
	at, err := parseWhen(cmd.When)
	if err != nil {
		return err
	}
	id, err := e.repo.AddReminder(ctx, model.Reminder{NoteID: cmd.ID, At: at})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d\n", id)
	return nil
}

// RescheduleCmd re-announces pending reminders, e.g. after a reboot.
type RescheduleCmd struct{}

func (cmd *RescheduleCmd) Run(ctx context.Context, e *env) error {
	n, err := e.repo.RescheduleReminders(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d reminder(s) scheduled\n", n)
	return nil
}

// WatchCmd follows the home lists or a search until interrupted.
type WatchCmd struct {
	Tasks bool   `help:"Watch tasks instead of notes."`
	Query string `short:"q" help:"Watch the results of a search instead."`
}

func (cmd *WatchCmd) Run(ctx context.Context, e *env) error {
	if cmd.Query != "" {
		return cmd.watchSearch(ctx, e)
	}

	home, err := viewstate.NewHome(ctx, e.repo)
	if err != nil {
		return err
	}
	defer home.Close()

	title := "Notes"
	if cmd.Tasks {
		title = "Tasks"
		home.SelectTab(viewstate.TabTasks)
	}

	for {
		select {
		case st, ok := <-home.Updates():
			if !ok {
				return nil
			}
			if st.Err != nil {
				fmt.Fprintln(os.Stderr, renderError(st.Err))
			}
			if st.Loading {
				continue
			}
			fmt.Fprint(os.Stdout, renderNotes(title, st.Items, time.Now()))
		case <-ctx.Done():
			return nil
		}
	}
}

func (cmd *WatchCmd) watchSearch(ctx context.Context, e *env) error {
	search := viewstate.NewSearch(ctx, e.repo, e.cfg.Search.Debounce())
	defer search.Close()
	search.SetQuery(cmd.Query)

	for {
		select {
		case st, ok := <-search.Updates():
			if !ok {
				return nil
			}
			if st.Err != nil {
				fmt.Fprintln(os.Stderr, renderError(st.Err))
			}
			if st.ResultsFor != cmd.Query {
				continue
			}
			fmt.Fprint(os.Stdout, renderNotes(fmt.Sprintf("Search %q", cmd.Query), st.Results, time.Now()))
		case <-ctx.Done():
			return nil
		}
	}
}

// InitConfigCmd writes the effective configuration to the config path.
type InitConfigCmd struct {
	Force bool `help:"Overwrite an existing file."`
}

func (cmd *InitConfigCmd) Run(e *env) error {
	if _, err := os.Stat(e.cfgPath); err == nil && !cmd.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", e.cfgPath)
	}
	if err := model.SaveConfig(e.cfgPath, e.cfg); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, e.cfgPath)
	return nil
}

var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseWhen reads a user-supplied time in local time.
func parseWhen(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}
