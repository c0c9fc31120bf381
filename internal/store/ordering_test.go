package store

import (
	"context"
	"testing"

	"github.com/eludris-go/eludris/internal/db"
	"github.com/eludris-go/eludris/internal/ids"
	"github.com/eludris-go/eludris/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(dbTestConfig())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	ctx := context.Background()
	if err := db.Migrate(ctx, database); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return New(database, ids.NewGenerator(0))
}

func positionsOf(t *testing.T, s *Store, categoryID uint64) []uint64 {
	t.Helper()
	chans, err := s.ListChannels(context.Background(), categoryID)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	out := make([]uint64, len(chans))
	for _, c := range chans {
		out[c.Position] = c.ID
	}
	return out
}

// TestChannelReorderSameContainer mirrors §8 scenario 2: reordering
// channels within one category must keep positions a dense permutation
// of [0, N) at every step.
func TestChannelReorderSameContainer(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sphereID := s.IDs.Generate()
	if err := s.CreateSphere(ctx, models.Sphere{ID: sphereID, OwnerID: 1, Slug: "horse", Type: models.SphereHybrid}); err != nil {
		t.Fatalf("CreateSphere: %v", err)
	}
	// the sphere's implicit default category shares its id (§4.7).
	categoryID := sphereID

	ids := make([]uint64, 4)
	for i := range ids {
		id := s.IDs.Generate()
		ids[i] = id
		ch := models.Channel{ID: id, SphereID: sphereID, Name: "c", Type: models.ChannelText, CategoryID: categoryID}
		if err := s.CreateChannel(ctx, ch); err != nil {
			t.Fatalf("CreateChannel %d: %v", i, err)
		}
	}
	a, b, c, d := ids[0], ids[1], ids[2], ids[3]

	if got := positionsOf(t, s, categoryID); len(got) != 4 {
		t.Fatalf("expected 4 live channels, got %d", len(got))
	}

	// PATCH d -> position 1: [0:a, 1:d, 2:b, 3:c]
	if err := s.MoveChannel(ctx, d, categoryID, 1); err != nil {
		t.Fatalf("MoveChannel(d, 1): %v", err)
	}
	want := []uint64{a, d, b, c}
	if got := positionsOf(t, s, categoryID); !equalIDs(got, want) {
		t.Fatalf("after moving d to 1: got %v, want %v", got, want)
	}

	// PATCH a -> position 2: [0:d, 1:b, 2:a, 3:c]
	if err := s.MoveChannel(ctx, a, categoryID, 2); err != nil {
		t.Fatalf("MoveChannel(a, 2): %v", err)
	}
	want = []uint64{d, b, a, c}
	if got := positionsOf(t, s, categoryID); !equalIDs(got, want) {
		t.Fatalf("after moving a to 2: got %v, want %v", got, want)
	}
}

// TestChannelDeleteCompactsPositions covers invariant 1: deleting a
// live channel must close the gap so positions stay [0, N).
func TestChannelDeleteCompactsPositions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sphereID := s.IDs.Generate()
	if err := s.CreateSphere(ctx, models.Sphere{ID: sphereID, OwnerID: 1, Slug: "gap", Type: models.SphereHybrid}); err != nil {
		t.Fatalf("CreateSphere: %v", err)
	}
	categoryID := sphereID

	var first uint64
	for i := 0; i < 3; i++ {
		id := s.IDs.Generate()
		if i == 0 {
			first = id
		}
		ch := models.Channel{ID: id, SphereID: sphereID, Name: "c", Type: models.ChannelText, CategoryID: categoryID}
		if err := s.CreateChannel(ctx, ch); err != nil {
			t.Fatalf("CreateChannel %d: %v", i, err)
		}
	}

	if err := s.DeleteChannel(ctx, first); err != nil {
		t.Fatalf("DeleteChannel: %v", err)
	}
	chans, err := s.ListChannels(ctx, categoryID)
	if err != nil {
		t.Fatalf("ListChannels: %v", err)
	}
	if len(chans) != 2 {
		t.Fatalf("expected 2 live channels after delete, got %d", len(chans))
	}
	for i, c := range chans {
		if int(c.Position) != i {
			t.Errorf("live channels should occupy [0,N) densely, channel %d has position %d", i, c.Position)
		}
	}
}

// TestDefaultCategoryCannotBeModified covers §4.7's invariant that the
// category whose id equals the sphere's id is the implicit default.
func TestDefaultCategoryCannotBeModified(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sphereID := s.IDs.Generate()
	if err := s.CreateSphere(ctx, models.Sphere{ID: sphereID, OwnerID: 1, Slug: "fixed", Type: models.SphereHybrid}); err != nil {
		t.Fatalf("CreateSphere: %v", err)
	}

	if err := s.RenameCategory(ctx, sphereID, "new name"); err == nil {
		t.Error("renaming the default category should be rejected")
	}
	if err := s.DeleteCategory(ctx, sphereID); err == nil {
		t.Error("deleting the default category should be rejected")
	}
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
