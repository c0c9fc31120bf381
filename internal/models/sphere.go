package models

import "github.com/eludris-go/eludris/internal/bitflag"

// SphereType is the Sphere.Type enum (§3). Upgrades may only move from
// CHAT or FORUM to HYBRID; downgrading is never allowed.
type SphereType string

const (
	SphereChat   SphereType = "CHAT"
	SphereForum  SphereType = "FORUM"
	SphereHybrid SphereType = "HYBRID"
)

// CanUpgradeTo reports whether moving from from to to is a legal upgrade.
func CanUpgradeTo(from, to SphereType) bool {
	if from == to {
		return true
	}
	return to == SphereHybrid && (from == SphereChat || from == SphereForum)
}

// Sphere is a community namespace (§3, GLOSSARY).
type Sphere struct {
	ID          uint64        `json:"id"`
	OwnerID     uint64        `json:"owner_id"`
	Slug        string        `json:"slug"`
	Name        *string       `json:"name,omitempty"`
	Type        SphereType    `json:"type"`
	Description *string       `json:"description,omitempty"`
	IconID      *uint64       `json:"icon,omitempty"`
	BannerID    *uint64       `json:"banner,omitempty"`
	Badges      bitflag.Flags `json:"badges"`
	IsDeleted   bool          `json:"-"`
}

// SpherePopulated is the full representation returned by sphere fetch
// routes, matching §8 scenario 1's expected body shape.
type SpherePopulated struct {
	Sphere
	Categories []CategoryPopulated `json:"categories"`
	Members    []Member            `json:"members"`
}
