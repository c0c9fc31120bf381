package store

import (
	"context"
	"testing"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

func seedMessage(t *testing.T, s *Store) (channelID, messageID uint64) {
	t.Helper()
	ctx := context.Background()
	sphereID := s.IDs.Generate()
	if err := s.CreateSphere(ctx, models.Sphere{ID: sphereID, OwnerID: 1, Slug: "reacts", Type: models.SphereHybrid}); err != nil {
		t.Fatalf("CreateSphere: %v", err)
	}
	channelID = s.IDs.Generate()
	if err := s.CreateChannel(ctx, models.Channel{ID: channelID, SphereID: sphereID, Name: "general", Type: models.ChannelText, CategoryID: sphereID}); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	messageID = s.IDs.Generate()
	content := "hello"
	if err := s.CreateMessage(ctx, models.Message{ID: messageID, ChannelID: channelID, Content: &content}, 0); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	return channelID, messageID
}

// TestAddReactionRejectsDuplicate covers invariant 5 and §8 scenario 8:
// a second identical (message, emoji, user) reaction fails without
// changing state.
func TestAddReactionRejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	_, messageID := seedMessage(t, s)
	ctx := context.Background()

	if err := s.AddReaction(ctx, messageID, "👍", 1); err != nil {
		t.Fatalf("first AddReaction: %v", err)
	}
	err := s.AddReaction(ctx, messageID, "👍", 1)
	apiErr, ok := apierror.As(err)
	if !ok || apiErr.Kind != apierror.Validation {
		t.Fatalf("duplicate AddReaction should fail validation, got %v", err)
	}

	m, err := s.GetMessage(ctx, messageID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if len(m.Reactions) != 1 || len(m.Reactions[0].UserIDs) != 1 {
		t.Fatalf("expected exactly one reaction with one user, got %+v", m.Reactions)
	}
}

func TestRemoveReactionRejectsNonexistence(t *testing.T) {
	s := newTestStore(t)
	_, messageID := seedMessage(t, s)
	ctx := context.Background()

	err := s.RemoveReaction(ctx, messageID, "👍", 1)
	apiErr, ok := apierror.As(err)
	if !ok || apiErr.Kind != apierror.NotFound {
		t.Fatalf("removing a reaction that never existed should 404, got %v", err)
	}
}

func TestClearAllReactionsRejectsWhenEmpty(t *testing.T) {
	s := newTestStore(t)
	_, messageID := seedMessage(t, s)
	ctx := context.Background()

	if err := s.ClearAllReactions(ctx, messageID); err == nil {
		t.Fatal("clearing reactions on a message with none should fail")
	}

	if err := s.AddReaction(ctx, messageID, "👍", 1); err != nil {
		t.Fatalf("AddReaction: %v", err)
	}
	if err := s.ClearAllReactions(ctx, messageID); err != nil {
		t.Fatalf("ClearAllReactions with a real reaction present: %v", err)
	}
}

// TestMessageNonEmptyInvariant covers invariant 4: creating or editing a
// message into an empty state must fail validation.
func TestMessageNonEmptyInvariant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sphereID := s.IDs.Generate()
	if err := s.CreateSphere(ctx, models.Sphere{ID: sphereID, OwnerID: 1, Slug: "empty", Type: models.SphereHybrid}); err != nil {
		t.Fatalf("CreateSphere: %v", err)
	}
	channelID := s.IDs.Generate()
	if err := s.CreateChannel(ctx, models.Channel{ID: channelID, SphereID: sphereID, Name: "general", Type: models.ChannelText, CategoryID: sphereID}); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}

	messageID := s.IDs.Generate()
	err := s.CreateMessage(ctx, models.Message{ID: messageID, ChannelID: channelID}, 0)
	if apiErr, ok := apierror.As(err); !ok || apiErr.Kind != apierror.Validation {
		t.Fatalf("creating an empty message should fail validation, got %v", err)
	}

	content := "not empty"
	messageID = s.IDs.Generate()
	if err := s.CreateMessage(ctx, models.Message{ID: messageID, ChannelID: channelID, Content: &content}, 0); err != nil {
		t.Fatalf("CreateMessage with content: %v", err)
	}
	err = s.EditMessage(ctx, messageID, MessagePatch{HasContent: true, Content: nil}, 1)
	if apiErr, ok := apierror.As(err); !ok || apiErr.Kind != apierror.Validation {
		t.Fatalf("editing content to empty with no attachments/embeds should fail validation, got %v", err)
	}
}
