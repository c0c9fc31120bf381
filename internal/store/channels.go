package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

func scanChannel(row scanner) (models.Channel, error) {
	var c models.Channel
	var topic sql.NullString
	err := row.Scan(&c.ID, &c.SphereID, &c.Name, &c.Type, &topic, &c.CategoryID, &c.Position, &c.IsDeleted)
	if err != nil {
		return c, err
	}
	if topic.Valid {
		c.Topic = &topic.String
	}
	return c, nil
}

const channelColumns = `id, sphere_id, name, type, topic, category_id, position, is_deleted`

// GetChannel fetches a live channel by id.
func (s *Store) GetChannel(ctx context.Context, id uint64) (models.Channel, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+channelColumns+` FROM channels WHERE id=$1 AND is_deleted=FALSE`, id)
	c, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, apierror.NotFoundf("channel not found")
	}
	return c, err
}

// ListChannels returns every live channel of a category ordered by position.
func (s *Store) ListChannels(ctx context.Context, categoryID uint64) ([]models.Channel, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+channelColumns+` FROM channels WHERE category_id=$1 AND is_deleted=FALSE ORDER BY position`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateChannel inserts a channel at the end of its category's ordering.
func (s *Store) CreateChannel(ctx context.Context, c models.Channel) error {
	var maxPos sql.NullInt64
	row := s.DB.QueryRow(ctx, `SELECT MAX(position) FROM channels WHERE category_id=$1 AND is_deleted=FALSE`, c.CategoryID)
	if err := row.Scan(&maxPos); err != nil {
		return err
	}
	c.Position = 0
	if maxPos.Valid {
		c.Position = uint32(maxPos.Int64) + 1
	}
	_, err := s.DB.Exec(ctx,
		`INSERT INTO channels (id, sphere_id, name, type, topic, category_id, position, is_deleted) VALUES ($1,$2,$3,$4,$5,$6,$7,FALSE)`,
		c.ID, c.SphereID, c.Name, string(c.Type), c.Topic, c.CategoryID, c.Position)
	return err
}

// ChannelPatch carries the optional fields accepted by channel edit.
type ChannelPatch struct {
	Name  *string
	Topic *string
	HasTopic bool
}

// UpdateChannel applies a name/topic edit.
func (s *Store) UpdateChannel(ctx context.Context, id uint64, p ChannelPatch) error {
	if p.Name != nil {
		if _, err := s.DB.Exec(ctx, `UPDATE channels SET name=$1 WHERE id=$2`, *p.Name, id); err != nil {
			return err
		}
	}
	if p.HasTopic {
		if _, err := s.DB.Exec(ctx, `UPDATE channels SET topic=$1 WHERE id=$2`, p.Topic, id); err != nil {
			return err
		}
	}
	return nil
}

// MoveChannel relocates a channel to newPosition, either within its
// current category (range-shift) or into destCategoryID (cross-container
// move: close the gap at the source position, open one at the
// destination), grounded on the original implementation's two-statement
// edit.rs logic.
func (s *Store) MoveChannel(ctx context.Context, id uint64, destCategoryID uint64, newPosition uint32) error {
	ch, err := s.GetChannel(ctx, id)
	if err != nil {
		return err
	}
	return s.DB.DoTxn(ctx, nil, func(txCtx context.Context) error {
		if destCategoryID == ch.CategoryID {
			if newPosition == ch.Position {
				return nil
			}
			if newPosition > ch.Position {
				_, err := s.DB.Exec(txCtx,
					`UPDATE channels SET position = CASE WHEN id=$1 THEN $2 ELSE position - 1 END
					 WHERE category_id=$3 AND is_deleted=FALSE AND position BETWEEN $4 AND $2`,
					id, newPosition, ch.CategoryID, ch.Position)
				return err
			}
			_, err := s.DB.Exec(txCtx,
				`UPDATE channels SET position = CASE WHEN id=$1 THEN $2 ELSE position + 1 END
				 WHERE category_id=$3 AND is_deleted=FALSE AND position BETWEEN $2 AND $4`,
				id, newPosition, ch.CategoryID, ch.Position)
			return err
		}
		if _, err := s.DB.Exec(txCtx,
			`UPDATE channels SET position = position - 1 WHERE category_id=$1 AND is_deleted=FALSE AND position > $2`,
			ch.CategoryID, ch.Position); err != nil {
			return err
		}
		if _, err := s.DB.Exec(txCtx,
			`UPDATE channels SET position = position + 1 WHERE category_id=$1 AND is_deleted=FALSE AND position >= $2`,
			destCategoryID, newPosition); err != nil {
			return err
		}
		_, err := s.DB.Exec(txCtx,
			`UPDATE channels SET category_id=$1, position=$2 WHERE id=$3`,
			destCategoryID, newPosition, id)
		return err
	})
}

// DeleteChannel soft-deletes a channel and compacts its category's ordering.
func (s *Store) DeleteChannel(ctx context.Context, id uint64) error {
	ch, err := s.GetChannel(ctx, id)
	if err != nil {
		return err
	}
	return s.DB.DoTxn(ctx, nil, func(txCtx context.Context) error {
		if _, err := s.DB.Exec(txCtx, `UPDATE channels SET is_deleted=TRUE WHERE id=$1`, id); err != nil {
			return err
		}
		_, err := s.DB.Exec(txCtx,
			`UPDATE channels SET position = position - 1 WHERE category_id=$1 AND is_deleted=FALSE AND position > $2`,
			ch.CategoryID, ch.Position)
		return err
	})
}
