package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/notekeeper/internal/live"
	"github.com/nhle/notekeeper/internal/model"
)

const mediaColumns = `id, note_id, file_path, media_type, description, thumbnail_path`

// mediaRow mirrors a media table row.
type mediaRow struct {
	ID            int64          `db:"id"`
	NoteID        int64          `db:"note_id"`
	FilePath      string         `db:"file_path"`
	MediaType     string         `db:"media_type"`
	Description   sql.NullString `db:"description"`
	ThumbnailPath sql.NullString `db:"thumbnail_path"`
}

func (r mediaRow) toModel() model.Media {
	return model.Media{
		ID:            r.ID,
		NoteID:        r.NoteID,
		FilePath:      r.FilePath,
		Type:          model.MediaType(r.MediaType),
		Description:   stringPtr(r.Description),
		ThumbnailPath: stringPtr(r.ThumbnailPath),
	}
}

func toMedia(rows []mediaRow) []model.Media {
	media := make([]model.Media, 0, len(rows))
	for _, r := range rows {
		media = append(media, r.toModel())
	}
	return media
}

// InsertMedia stores a new attachment and returns its ID. The owning note
// must exist.
func (q *queries) InsertMedia(ctx context.Context, m model.Media) (int64, error) {
	result, err := q.ext.ExecContext(ctx, `
		INSERT INTO media (note_id, file_path, media_type, description, thumbnail_path)
		VALUES (?, ?, ?, ?, ?)`,
		m.NoteID, m.FilePath, string(m.Type),
		nullStringPtr(m.Description), nullStringPtr(m.ThumbnailPath),
	)
	if err != nil {
		return 0, wrap(fmt.Sprintf("inserting media for note %d", m.NoteID), err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, wrap("reading inserted media id", err)
	}
	q.touched |= live.Media
	return id, nil
}

// DeleteMedia removes an attachment by ID.
func (q *queries) DeleteMedia(ctx context.Context, id int64) error {
	op := fmt.Sprintf("deleting media %d", id)
	if err := q.execOne(ctx, op, "DELETE FROM media WHERE id = ?", id); err != nil {
		return err
	}
	q.touched |= live.Media
	return nil
}

// DeleteMediaList removes each listed attachment. Run it inside InTx to
// make the batch all-or-nothing.
func (q *queries) DeleteMediaList(ctx context.Context, media []model.Media) error {
	for _, m := range media {
		if err := q.DeleteMedia(ctx, m.ID); err != nil {
			return err
		}
	}
	return nil
}

// ListMedia returns every stored attachment.
func (q *queries) ListMedia(ctx context.Context) ([]model.Media, error) {
	var rows []mediaRow
	err := sqlx.SelectContext(ctx, q.ext, &rows,
		"SELECT "+mediaColumns+" FROM media ORDER BY id")
	if err != nil {
		return nil, wrap("querying media", err)
	}
	return toMedia(rows), nil
}

// ListMediaForNote returns the attachments of a note in insertion order.
func (q *queries) ListMediaForNote(ctx context.Context, noteID int64) ([]model.Media, error) {
	var rows []mediaRow
	err := sqlx.SelectContext(ctx, q.ext, &rows,
		"SELECT "+mediaColumns+" FROM media WHERE note_id = ? ORDER BY id", noteID)
	if err != nil {
		return nil, wrap(fmt.Sprintf("querying media for note %d", noteID), err)
	}
	return toMedia(rows), nil
}
