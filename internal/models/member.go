package models

// Member is the intersection of a user with a sphere, carrying
// sphere-local overrides (§3, GLOSSARY). Unique per (UserID, SphereID).
type Member struct {
	UserID        uint64  `json:"user_id"`
	SphereID      uint64  `json:"sphere_id"`
	Nickname      *string `json:"nickname,omitempty"`
	SphereAvatar  *uint64 `json:"sphere_avatar,omitempty"`
	SphereBanner  *uint64 `json:"sphere_banner,omitempty"`
	SphereBio     *string `json:"sphere_bio,omitempty"`
	SphereStatus  *string `json:"sphere_status,omitempty"`
	User          *User   `json:"user,omitempty"`
}
