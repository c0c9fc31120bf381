package store

import (
	"context"
	"testing"

	"github.com/eludris-go/eludris/internal/models"
)

// TestListSpheresForUser covers the gateway AUTHENTICATED{user, spheres}
// reply's backing query (§4.9, §6.3): it must return exactly the live
// spheres the user has joined, and none they've left or that are
// deleted.
func TestListSpheresForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := s.IDs.Generate()
	if err := s.CreateSphere(ctx, models.Sphere{ID: a, OwnerID: 1, Slug: "sphere-a", Type: models.SphereHybrid}); err != nil {
		t.Fatalf("CreateSphere a: %v", err)
	}
	b := s.IDs.Generate()
	if err := s.CreateSphere(ctx, models.Sphere{ID: b, OwnerID: 1, Slug: "sphere-b", Type: models.SphereHybrid}); err != nil {
		t.Fatalf("CreateSphere b: %v", err)
	}
	c := s.IDs.Generate()
	if err := s.CreateSphere(ctx, models.Sphere{ID: c, OwnerID: 1, Slug: "sphere-c", Type: models.SphereHybrid}); err != nil {
		t.Fatalf("CreateSphere c: %v", err)
	}

	const userID = 42
	if err := s.Join(ctx, userID, a, 0); err != nil {
		t.Fatalf("Join a: %v", err)
	}
	if err := s.Join(ctx, userID, b, 0); err != nil {
		t.Fatalf("Join b: %v", err)
	}
	if err := s.Join(ctx, userID, c, 0); err != nil {
		t.Fatalf("Join c: %v", err)
	}
	if err := s.Leave(ctx, userID, b); err != nil {
		t.Fatalf("Leave b: %v", err)
	}
	if err := s.SoftDeleteSphere(ctx, c); err != nil {
		t.Fatalf("SoftDeleteSphere c: %v", err)
	}

	got, err := s.ListSpheresForUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListSpheresForUser: %v", err)
	}
	if len(got) != 1 || got[0].ID != a {
		t.Fatalf("expected only sphere a, got %+v", got)
	}
}
