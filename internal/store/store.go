// Package store is the entity store (§5): CRUD plus invariant
// enforcement over users, sessions, spheres, categories, channels,
// members, messages, reactions, emojis and files. It follows the
// teacher's textfs.Store shape — a thin struct wrapping *dbutil.Database
// with one method per operation, `$N` placeholders throughout, and
// ON CONFLICT upserts where the domain wants idempotent writes.
package store

import (
	"go.mau.fi/util/dbutil"

	"github.com/eludris-go/eludris/internal/ids"
)

// Store is the shared handle every sub-store method hangs off of.
type Store struct {
	DB  *dbutil.Database
	IDs *ids.Generator
}

// New wraps an open database handle and id generator.
func New(database *dbutil.Database, gen *ids.Generator) *Store {
	return &Store{DB: database, IDs: gen}
}
