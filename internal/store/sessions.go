package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

// CreateSession inserts a new login session (§4.9).
func (s *Store) CreateSession(ctx context.Context, sess models.Session, createdAt int64) error {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO sessions (id, user_id, platform, client, created_at) VALUES ($1,$2,$3,$4,$5)`,
		sess.ID, sess.UserID, sess.Platform, sess.Client, createdAt)
	return err
}

// GetSession fetches a session by id, used to validate gateway
// AUTHENTICATE frames and REST bearer tokens.
func (s *Store) GetSession(ctx context.Context, id uint64) (models.Session, error) {
	var sess models.Session
	row := s.DB.QueryRow(ctx, `SELECT id, user_id, platform, client FROM sessions WHERE id=$1`, id)
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Platform, &sess.Client)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, apierror.Unauthorizedf("session no longer exists")
	}
	return sess, err
}

// DeleteSession revokes a single session (logout).
func (s *Store) DeleteSession(ctx context.Context, id, userID uint64) error {
	res, err := s.DB.Exec(ctx, `DELETE FROM sessions WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apierror.NotFoundf("session not found")
	}
	return nil
}

// ListSessions returns every active session for a user (§6.1 GET /sessions).
func (s *Store) ListSessions(ctx context.Context, userID uint64) ([]models.Session, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, user_id, platform, client FROM sessions WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Platform, &sess.Client); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
