package models

// Emoji is a sphere-scoped custom emoji backed by an uploaded file
// (§3). Unlike most entities, fetches always filter on IsDeleted
// regardless of caller identity (redesign flag: emoji get bug fix).
type Emoji struct {
	ID        uint64 `json:"id"`
	SphereID  uint64 `json:"sphere_id"`
	Name      string `json:"name"`
	FileID    uint64 `json:"image_id"`
	UploaderID uint64 `json:"-"`
	IsDeleted bool   `json:"-"`
}
