package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

func scanMember(row scanner) (models.Member, error) {
	var m models.Member
	var nickname, bio, status sql.NullString
	var avatar, banner sql.NullInt64
	err := row.Scan(&m.UserID, &m.SphereID, &nickname, &avatar, &banner, &bio, &status)
	if err != nil {
		return m, err
	}
	if nickname.Valid {
		m.Nickname = &nickname.String
	}
	if bio.Valid {
		m.SphereBio = &bio.String
	}
	if status.Valid {
		m.SphereStatus = &status.String
	}
	if avatar.Valid {
		v := uint64(avatar.Int64)
		m.SphereAvatar = &v
	}
	if banner.Valid {
		v := uint64(banner.Int64)
		m.SphereBanner = &v
	}
	return m, nil
}

const memberColumns = `user_id, sphere_id, nickname, sphere_avatar, sphere_banner, sphere_bio, sphere_status`

// Join inserts a new membership (§4.7's sphere-join flow).
func (s *Store) Join(ctx context.Context, userID, sphereID uint64, joinedAt int64) error {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO members (user_id, sphere_id, joined_at) VALUES ($1,$2,$3)`, userID, sphereID, joinedAt)
	if isUniqueViolation(err) {
		return apierror.Conflictf("sphere_id", "already a member of this sphere")
	}
	return err
}

// Leave removes a membership.
func (s *Store) Leave(ctx context.Context, userID, sphereID uint64) error {
	res, err := s.DB.Exec(ctx, `DELETE FROM members WHERE user_id=$1 AND sphere_id=$2`, userID, sphereID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apierror.NotFoundf("not a member of this sphere")
	}
	return nil
}

// IsMember reports whether userID belongs to sphereID.
func (s *Store) IsMember(ctx context.Context, userID, sphereID uint64) (bool, error) {
	var exists int
	row := s.DB.QueryRow(ctx, `SELECT 1 FROM members WHERE user_id=$1 AND sphere_id=$2`, userID, sphereID)
	err := row.Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ListMembers returns every member of a sphere.
func (s *Store) ListMembers(ctx context.Context, sphereID uint64) ([]models.Member, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+memberColumns+` FROM members WHERE sphere_id=$1`, sphereID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMember fetches a single membership row.
func (s *Store) GetMember(ctx context.Context, userID, sphereID uint64) (models.Member, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE user_id=$1 AND sphere_id=$2`, userID, sphereID)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return m, apierror.NotFoundf("not a member of this sphere")
	}
	return m, err
}

// UpdateMemberOverrides sets a member's sphere-local nickname; the
// avatar, banner, bio and status overrides are not written here.
func (s *Store) UpdateMemberOverrides(ctx context.Context, userID, sphereID uint64, nickname *string) error {
	_, err := s.DB.Exec(ctx, `UPDATE members SET nickname=$1 WHERE user_id=$2 AND sphere_id=$3`, nickname, userID, sphereID)
	return err
}
