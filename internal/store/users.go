package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/bitflag"
	"github.com/eludris-go/eludris/internal/models"
)

// CreateUser inserts a new account. Caller is responsible for hashing
// the password and generating the verification code beforehand.
func (s *Store) CreateUser(ctx context.Context, u models.User, verificationCode string, createdAt int64) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO users (id, username, display_name, social_credit, email, password_hash,
			verified, verification_code, bio, avatar, banner, badges, permissions,
			status_type, status_text, created_at, is_deleted)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,FALSE)`,
		u.ID, u.Username, u.DisplayName, u.SocialCredit, u.Email, u.PasswordHash,
		u.Verified, verificationCode, u.Bio, u.AvatarID, u.BannerID, u.Badges.Bits(), u.Permissions.Bits(),
		string(u.Status.Type), u.Status.Text, createdAt,
	)
	if isUniqueViolation(err) {
		return apierror.Conflictf("username", "username or email already taken")
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	var badges, perms uint64
	var statusType, statusText, displayName, bio sql.NullString
	var avatar, banner sql.NullInt64
	err := row.Scan(&u.ID, &u.Username, &displayName, &u.SocialCredit, &u.Email, &u.PasswordHash,
		&u.Verified, &bio, &avatar, &banner, &badges, &perms,
		&statusType, &statusText, &u.IsDeleted)
	if err != nil {
		return u, err
	}
	if displayName.Valid {
		u.DisplayName = &displayName.String
	}
	if bio.Valid {
		u.Bio = &bio.String
	}
	if avatar.Valid {
		v := uint64(avatar.Int64)
		u.AvatarID = &v
	}
	if banner.Valid {
		v := uint64(banner.Int64)
		u.BannerID = &v
	}
	u.Badges = bitflag.FromBits(badges)
	u.Permissions = bitflag.FromBits(perms)
	u.Status = models.Status{Type: models.StatusType(statusType.String), Text: statusText.String}
	return u, nil
}

const userColumns = `id, username, display_name, social_credit, email, password_hash,
	verified, bio, avatar, banner, badges, permissions, status_type, status_text, is_deleted`

// GetUser fetches a live user by id.
func (s *Store) GetUser(ctx context.Context, id uint64) (models.User, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1 AND is_deleted=FALSE`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return u, apierror.NotFoundf("user not found")
	}
	return u, err
}

// GetUserByUsername fetches a live user by their unique handle.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1 AND is_deleted=FALSE`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return u, apierror.NotFoundf("user not found")
	}
	return u, err
}

// GetUserByEmail fetches a live user by email, used by login and
// password reset. Like GetUser, this does not filter on verified.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1 AND is_deleted=FALSE`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return u, apierror.NotFoundf("user not found")
	}
	return u, err
}

// VerificationCode returns the pending code for an unverified user, or
// ("", false) if the user is already verified or does not exist.
func (s *Store) VerificationCode(ctx context.Context, userID uint64) (string, bool, error) {
	var code sql.NullString
	row := s.DB.QueryRow(ctx, `SELECT verification_code FROM users WHERE id=$1 AND verified=FALSE AND is_deleted=FALSE`, userID)
	if err := row.Scan(&code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return code.String, code.Valid, nil
}

// VerifyUser marks a user verified and clears their pending code.
func (s *Store) VerifyUser(ctx context.Context, userID uint64) error {
	_, err := s.DB.Exec(ctx, `UPDATE users SET verified=TRUE, verification_code=NULL WHERE id=$1`, userID)
	return err
}

// SetPassword overwrites a user's password hash, used by reset-password.
func (s *Store) SetPassword(ctx context.Context, userID uint64, hash string) error {
	_, err := s.DB.Exec(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, userID)
	return err
}

// SetPasswordResetCode stores (or clears, with code="") the pending
// password reset code for a user (§6.1 POST /users/reset-password).
func (s *Store) SetPasswordResetCode(ctx context.Context, userID uint64, code string) error {
	var v sql.NullString
	if code != "" {
		v = sql.NullString{String: code, Valid: true}
	}
	_, err := s.DB.Exec(ctx, `UPDATE users SET password_reset_code=$1 WHERE id=$2`, v, userID)
	return err
}

// ConsumePasswordResetCode atomically checks code against the stored
// reset code for email and clears it on match, so a code can only ever
// be redeemed once.
func (s *Store) ConsumePasswordResetCode(ctx context.Context, email, code string) (models.User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return u, err
	}
	var stored sql.NullString
	row := s.DB.QueryRow(ctx, `SELECT password_reset_code FROM users WHERE id=$1`, u.ID)
	if err := row.Scan(&stored); err != nil {
		return u, err
	}
	if !stored.Valid || stored.String == "" || stored.String != code {
		return u, apierror.Validationf("code", "invalid or expired reset code")
	}
	if err := s.SetPasswordResetCode(ctx, u.ID, ""); err != nil {
		return u, err
	}
	return u, nil
}

// UserPatch carries the three-state fields accepted by PATCH /users/profile.
type UserPatch struct {
	DisplayName *string // non-nil pointer: set; nil pointer inside Some: clear
	HasDisplayName bool
	Bio            *string
	HasBio         bool
	StatusType     *models.StatusType
	StatusText     *string
	HasStatusText  bool
	AvatarID       *uint64
	HasAvatar      bool
	BannerID       *uint64
	HasBanner      bool
}

// UpdateUserProfile applies a partial profile edit (§4.10's consolidated
// PATCH endpoint). Each Has* flag distinguishes "field omitted" from
// "field present with a null value" per the three-state PATCH contract.
func (s *Store) UpdateUserProfile(ctx context.Context, userID uint64, p UserPatch) error {
	if p.HasDisplayName {
		if _, err := s.DB.Exec(ctx, `UPDATE users SET display_name=$1 WHERE id=$2`, p.DisplayName, userID); err != nil {
			return err
		}
	}
	if p.HasBio {
		if _, err := s.DB.Exec(ctx, `UPDATE users SET bio=$1 WHERE id=$2`, p.Bio, userID); err != nil {
			return err
		}
	}
	if p.HasAvatar {
		if _, err := s.DB.Exec(ctx, `UPDATE users SET avatar=$1 WHERE id=$2`, p.AvatarID, userID); err != nil {
			return err
		}
	}
	if p.HasBanner {
		if _, err := s.DB.Exec(ctx, `UPDATE users SET banner=$1 WHERE id=$2`, p.BannerID, userID); err != nil {
			return err
		}
	}
	if p.StatusType != nil {
		if _, err := s.DB.Exec(ctx, `UPDATE users SET status_type=$1 WHERE id=$2`, string(*p.StatusType), userID); err != nil {
			return err
		}
	}
	if p.HasStatusText {
		if _, err := s.DB.Exec(ctx, `UPDATE users SET status_text=$1 WHERE id=$2`, p.StatusText, userID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateUserCredentials applies an optional username and/or email change
// (§4.10's PATCH /users), each left untouched when nil.
func (s *Store) UpdateUserCredentials(ctx context.Context, userID uint64, username, email *string) error {
	if username != nil {
		if _, err := s.DB.Exec(ctx, `UPDATE users SET username=$1 WHERE id=$2`, *username, userID); err != nil {
			if isUniqueViolation(err) {
				return apierror.Conflictf("username", "username already taken")
			}
			return err
		}
	}
	if email != nil {
		if _, err := s.DB.Exec(ctx, `UPDATE users SET email=$1, verified=FALSE WHERE id=$2`, *email, userID); err != nil {
			if isUniqueViolation(err) {
				return apierror.Conflictf("email", "email already taken")
			}
			return err
		}
	}
	return nil
}

// SoftDeleteUser tombstones a user (account deletion, §4.10).
func (s *Store) SoftDeleteUser(ctx context.Context, userID uint64) error {
	_, err := s.DB.Exec(ctx, `UPDATE users SET is_deleted=TRUE WHERE id=$1`, userID)
	return err
}

// HardDeleteUnverified purges unverified accounts older than cutoff
// (unix seconds), used by the sweep job (§13).
func (s *Store) HardDeleteUnverified(ctx context.Context, cutoff int64) (int64, error) {
	res, err := s.DB.Exec(ctx, `DELETE FROM users WHERE verified=FALSE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HardDeleteTombstonedUsers purges soft-deleted users older than cutoff.
func (s *Store) HardDeleteTombstonedUsers(ctx context.Context, cutoff int64) (int64, error) {
	res, err := s.DB.Exec(ctx, `DELETE FROM users WHERE is_deleted=TRUE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
