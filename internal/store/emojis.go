package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

// CreateEmoji inserts a sphere-scoped custom emoji.
func (s *Store) CreateEmoji(ctx context.Context, e models.Emoji) error {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO emojis (id, sphere_id, name, image_id, uploader_id, is_deleted) VALUES ($1,$2,$3,$4,$5,FALSE)`,
		e.ID, e.SphereID, e.Name, e.FileID, e.UploaderID)
	if isUniqueViolation(err) {
		return apierror.Conflictf("name", "an emoji with this name already exists in this sphere")
	}
	return err
}

// GetEmoji fetches a live emoji by id. Per the redesign flag fixing the
// original lookup bug, this always filters on is_deleted regardless of
// the caller's identity.
func (s *Store) GetEmoji(ctx context.Context, id uint64) (models.Emoji, error) {
	var e models.Emoji
	row := s.DB.QueryRow(ctx, `SELECT id, sphere_id, name, image_id, uploader_id, is_deleted FROM emojis WHERE id=$1 AND is_deleted=FALSE`, id)
	err := row.Scan(&e.ID, &e.SphereID, &e.Name, &e.FileID, &e.UploaderID, &e.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return e, apierror.NotFoundf("emoji not found")
	}
	return e, err
}

// ListEmojis returns every live emoji of a sphere.
func (s *Store) ListEmojis(ctx context.Context, sphereID uint64) ([]models.Emoji, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, sphere_id, name, image_id, uploader_id, is_deleted FROM emojis WHERE sphere_id=$1 AND is_deleted=FALSE`, sphereID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Emoji
	for rows.Next() {
		var e models.Emoji
		if err := rows.Scan(&e.ID, &e.SphereID, &e.Name, &e.FileID, &e.UploaderID, &e.IsDeleted); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RenameEmoji updates an emoji's name.
func (s *Store) RenameEmoji(ctx context.Context, id uint64, name string) error {
	_, err := s.DB.Exec(ctx, `UPDATE emojis SET name=$1 WHERE id=$2`, name, id)
	if isUniqueViolation(err) {
		return apierror.Conflictf("name", "an emoji with this name already exists in this sphere")
	}
	return err
}

// DeleteEmoji soft-deletes an emoji.
func (s *Store) DeleteEmoji(ctx context.Context, id uint64) error {
	_, err := s.DB.Exec(ctx, `UPDATE emojis SET is_deleted=TRUE WHERE id=$1`, id)
	return err
}

// HardDeleteTombstonedEmojis purges soft-deleted emojis, used by the sweep job.
func (s *Store) HardDeleteTombstonedEmojis(ctx context.Context) (int64, error) {
	res, err := s.DB.Exec(ctx, `DELETE FROM emojis WHERE is_deleted=TRUE`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
