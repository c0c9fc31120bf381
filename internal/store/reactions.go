package store

import (
	"context"
	"database/sql"

	"github.com/eludris-go/eludris/internal/apierror"
)

// AddReaction records userID's reaction on a message, rejecting a
// duplicate (message, emoji, user) row per invariant 5 and §4.8 rather
// than silently no-opping. Per the redesign flag correcting the
// original implementation's bug, the row stores the reacting user's
// id, never the message author's.
func (s *Store) AddReaction(ctx context.Context, messageID uint64, emoji string, userID uint64) error {
	_, err := s.DB.Exec(ctx,
		`INSERT INTO reactions (message_id, emoji, user_id) VALUES ($1,$2,$3)`,
		messageID, emoji, userID)
	if isUniqueViolation(err) {
		return apierror.Validationf("emoji", "you have already reacted with this emoji")
	}
	return err
}

// RemoveReaction deletes one user's reaction, implicitly removing the
// whole (message, emoji) group once its last member leaves (invariant 5
// is automatic: an empty group simply has no rows left).
func (s *Store) RemoveReaction(ctx context.Context, messageID uint64, emoji string, userID uint64) error {
	res, err := s.DB.Exec(ctx, `DELETE FROM reactions WHERE message_id=$1 AND emoji=$2 AND user_id=$3`, messageID, emoji, userID)
	if err != nil {
		return err
	}
	return rejectIfNoneAffected(res, "reaction not found")
}

// ClearReaction deletes every reactor for a single emoji on a message,
// rejecting the call if no reaction rows existed for it (§4.8).
func (s *Store) ClearReaction(ctx context.Context, messageID uint64, emoji string) error {
	res, err := s.DB.Exec(ctx, `DELETE FROM reactions WHERE message_id=$1 AND emoji=$2`, messageID, emoji)
	if err != nil {
		return err
	}
	return rejectIfNoneAffected(res, "no reactions to clear")
}

// ClearAllReactions deletes every reaction on a message, rejecting the
// call if the message had no reactions at all (§4.8).
func (s *Store) ClearAllReactions(ctx context.Context, messageID uint64) error {
	res, err := s.DB.Exec(ctx, `DELETE FROM reactions WHERE message_id=$1`, messageID)
	if err != nil {
		return err
	}
	return rejectIfNoneAffected(res, "no reactions to clear")
}

func rejectIfNoneAffected(res sql.Result, message string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apierror.NotFoundf(message)
	}
	return nil
}
