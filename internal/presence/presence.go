// Package presence tracks which users currently hold a live gateway
// connection and derives their effective online status (§4.9), backed
// by the shared cache's set operations the way the teacher's
// connector tracks active portal members with plain maps+mutex.
package presence

import (
	"context"
	"fmt"

	"github.com/eludris-go/eludris/internal/cache"
	"github.com/eludris-go/eludris/internal/models"
)

// Tracker maps users to their live session count. A user with zero
// live sessions is offline regardless of their stored status (§4.9).
type Tracker struct {
	cache cache.Cache
}

// New builds a Tracker over the shared cache.
func New(c cache.Cache) *Tracker {
	return &Tracker{cache: c}
}

func sessionSetKey(userID uint64) string {
	return fmt.Sprintf("presence:%d", userID)
}

// Connect records sessionID as live for userID. Returns true if this is
// the user's first live session (a transition worth broadcasting).
func (t *Tracker) Connect(ctx context.Context, userID, sessionID uint64) (firstSession bool, err error) {
	key := sessionSetKey(userID)
	before, err := t.cache.SetSize(ctx, key)
	if err != nil {
		return false, err
	}
	if err := t.cache.SetAdd(ctx, key, fmt.Sprint(sessionID)); err != nil {
		return false, err
	}
	return before == 0, nil
}

// Disconnect removes sessionID from userID's live set. Returns true if
// the user has no remaining live sessions (a transition worth
// broadcasting as PRESENCE_UPDATE{OFFLINE}).
func (t *Tracker) Disconnect(ctx context.Context, userID, sessionID uint64) (wentOffline bool, err error) {
	key := sessionSetKey(userID)
	if err := t.cache.SetRemove(ctx, key, fmt.Sprint(sessionID)); err != nil {
		return false, err
	}
	after, err := t.cache.SetSize(ctx, key)
	if err != nil {
		return false, err
	}
	return after == 0, nil
}

// IsOnline reports whether userID has at least one live session.
func (t *Tracker) IsOnline(ctx context.Context, userID uint64) (bool, error) {
	n, err := t.cache.SetSize(ctx, sessionSetKey(userID))
	return n > 0, err
}

// EffectiveStatus applies the Redacted rewrite (§4.9): an offline user
// always reports OFFLINE with no status text regardless of their stored
// preference.
func EffectiveStatus(u models.User, online bool) models.Status {
	if online {
		return u.Status
	}
	return models.Status{Type: models.StatusOffline}
}
