package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/notekeeper/internal/model"
	"github.com/nhle/notekeeper/internal/theme"
)

const dateLayout = "2006-01-02 15:04"

// renderNotes formats a list of notes or tasks, one per line.
func renderNotes(title string, notes []model.Note, now time.Time) string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(fmt.Sprintf("%s (%d)", title, len(notes))))
	b.WriteString("\n")

	if len(notes) == 0 {
		b.WriteString(theme.HelpStyle.Render("  nothing here"))
		b.WriteString("\n")
		return b.String()
	}

	for _, n := range notes {
		b.WriteString(renderNote(n, now))
		b.WriteString("\n")
	}
	return b.String()
}

func renderNote(n model.Note, now time.Time) string {
	id := theme.IDStyle.Render(fmt.Sprintf("%d", n.ID))

	if !n.IsTask {
		date := theme.DateStyle.Render(n.RegistrationDate.Local().Format(dateLayout))
		return fmt.Sprintf("%s  %s  %s", id, date, n.Title)
	}

	box := "[ ]"
	if n.IsCompleted {
		box = "[x]"
	}
	due := "no due date     "
	if n.TaskDueDate != nil {
		due = n.TaskDueDate.Local().Format(dateLayout)
	}
	return fmt.Sprintf("%s  %s %s  %s",
		id, box, theme.DateStyle.Render(due), theme.TaskStyle(n, now).Render(n.Title))
}

// renderMedia formats attachments, one per line.
func renderMedia(media []model.Media) string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(fmt.Sprintf("Media (%d)", len(media))))
	b.WriteString("\n")

	if len(media) == 0 {
		b.WriteString(theme.HelpStyle.Render("  nothing here"))
		b.WriteString("\n")
		return b.String()
	}

	for _, m := range media {
		line := fmt.Sprintf("%s  note %d %s %s",
			theme.IDStyle.Render(fmt.Sprintf("%d", m.ID)),
			m.NoteID, theme.MediaTypeStyle(m.Type).Render(string(m.Type)), m.FilePath)
		if m.Description != nil {
			line += "  " + theme.HelpStyle.Render(*m.Description)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderError(err error) string {
	return theme.ErrorStyle.Render("error: " + err.Error())
}
