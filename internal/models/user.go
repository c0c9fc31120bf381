// Package models holds the wire/DB-facing entity types from §3.
package models

import "github.com/eludris-go/eludris/internal/bitflag"

// StatusType is a user's presence status (§3).
type StatusType string

const (
	StatusOnline  StatusType = "ONLINE"
	StatusIdle    StatusType = "IDLE"
	StatusBusy    StatusType = "BUSY"
	StatusOffline StatusType = "OFFLINE"
)

// Status is a user's presence status plus optional free text.
type Status struct {
	Type StatusType `json:"type"`
	Text string     `json:"text,omitempty"`
}

// User is an Eludris account (§3). Username is globally unique among
// non-deleted users; Email is globally unique. IsDeleted marks a soft
// tombstone invisible to every lookup except the sweep job.
type User struct {
	ID           uint64          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	DisplayName  *string         `json:"display_name,omitempty"`
	SocialCredit int32           `json:"social_credit"`
	Status       Status          `json:"status"`
	Bio          *string         `json:"bio,omitempty"`
	AvatarID     *uint64         `json:"avatar,omitempty"`
	BannerID     *uint64         `json:"banner,omitempty"`
	Badges       bitflag.Flags   `json:"badges"`
	Permissions  bitflag.Flags   `json:"permissions"`
	Verified     bool            `json:"-"`
	IsDeleted    bool            `json:"-"`
}

// Redacted returns a copy of u safe to send to a caller who is not u
// themselves: email and verified are stripped (§4.10), and status is
// rewritten to OFFLINE with blank text when the user has no active
// gateway sessions (§4.9). `online` is computed by the presence service.
func (u User) Redacted(online bool, self bool) User {
	out := u
	if !self {
		out.Email = ""
	}
	if !online {
		out.Status = Status{Type: StatusOffline}
	}
	return out
}

// UsernamePattern documents the allowed username charset: lowercase
// [a-z0-9_-]{2,32}, at least one letter.
const UsernamePattern = `^[a-z0-9_-]{2,32}$`
