package models

// Session is a persisted credential letting a bearer token holder act as
// a user from a specific client/platform (§3).
type Session struct {
	ID       uint64 `json:"id"`
	UserID   uint64 `json:"user_id"`
	Platform string `json:"platform"`
	Client   string `json:"client"`
	IP       string `json:"-"`
}
