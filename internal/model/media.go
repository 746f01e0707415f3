package model

import (
	"fmt"
	"strings"
)

// MediaType identifies the kind of file attached to a note.
type MediaType string

const (
	MediaImage MediaType = "IMAGE"
	MediaVideo MediaType = "VIDEO"
	MediaAudio MediaType = "AUDIO"
)

// Valid reports whether t is one of the known media types.
func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo, MediaAudio:
		return true
	}
	return false
}

// ParseMediaType converts a case-insensitive name into a MediaType.
func ParseMediaType(s string) (MediaType, error) {
	t := MediaType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &ValidationError{
			Field:   "media_type",
			Message: fmt.Sprintf("unknown media type %q", s),
		}
	}
	return t, nil
}

// Media is a file attachment owned by exactly one note. The file itself is
// produced elsewhere; only its path is stored.
type Media struct {
	ID            int64     `json:"id" db:"id" yaml:"id"`
	NoteID        int64     `json:"note_id" db:"note_id" yaml:"note_id"`
	FilePath      string    `json:"file_path" db:"file_path" yaml:"file_path"`
	Type          MediaType `json:"media_type" db:"media_type" yaml:"media_type"`
	Description   *string   `json:"description,omitempty" db:"description" yaml:"description,omitempty"`
	ThumbnailPath *string   `json:"thumbnail_path,omitempty" db:"thumbnail_path" yaml:"thumbnail_path,omitempty"`
}

// Validate checks the fields required to store an attachment.
func (m Media) Validate() error {
	if strings.TrimSpace(m.FilePath) == "" {
		return &ValidationError{Field: "file_path", Message: "file path must not be empty"}
	}
	if !m.Type.Valid() {
		return &ValidationError{
			Field:   "media_type",
			Message: fmt.Sprintf("unknown media type %q", m.Type),
		}
	}
	return nil
}
