// Package bitflag ports todel/src/bitflag.rs's generic flag wrapper to Go:
// a named uint64 with has/add/remove/toggle helpers, used for User.Badges,
// User.Permissions and Sphere.Badges.
package bitflag

// Flags is a named bitfield. The zero value has no bits set.
type Flags uint64

// Empty returns a Flags with no bits set.
func Empty() Flags { return Flags(0) }

// FromBits wraps a raw value.
func FromBits(bits uint64) Flags { return Flags(bits) }

// Bits returns the raw value.
func (f Flags) Bits() uint64 { return uint64(f) }

// Has reports whether every bit in mask is set in f.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Add returns f with mask's bits set.
func (f Flags) Add(mask Flags) Flags { return f | mask }

// Remove returns f with mask's bits cleared.
func (f Flags) Remove(mask Flags) Flags { return f &^ mask }

// Toggle returns f with mask's bits flipped.
func (f Flags) Toggle(mask Flags) Flags { return f ^ mask }
