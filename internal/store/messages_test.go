package store

import (
	"context"
	"testing"

	"github.com/eludris-go/eludris/internal/models"
)

// TestSaveEmbedsPreservesCustomEmbeds covers the populate_embeds task's
// write path (§4.8): it must not delete embeds the caller supplied
// directly on create, only replace previously system-discovered ones.
func TestSaveEmbedsPreservesCustomEmbeds(t *testing.T) {
	s := newTestStore(t)
	_, messageID := seedMessage(t, s)
	ctx := context.Background()

	title := "a custom embed"
	custom := models.Embed{Type: models.EmbedCustom, Custom: &models.CustomEmbed{Title: &title}}
	if err := insertEmbeds(ctx, s, messageID, []models.Embed{custom}, 0); err != nil {
		t.Fatalf("insertEmbeds: %v", err)
	}

	discovered := []models.Embed{{Type: models.EmbedWebsite, URL: "https://example.com", Website: &models.WebsiteEmbed{}}}
	if err := s.SaveEmbeds(ctx, messageID, discovered); err != nil {
		t.Fatalf("SaveEmbeds: %v", err)
	}

	m, err := s.GetMessage(ctx, messageID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if len(m.Embeds) != 2 {
		t.Fatalf("expected the custom embed plus the discovered one, got %+v", m.Embeds)
	}
	var sawCustom, sawWebsite bool
	for _, e := range m.Embeds {
		switch e.Type {
		case models.EmbedCustom:
			sawCustom = true
		case models.EmbedWebsite:
			sawWebsite = true
		}
	}
	if !sawCustom || !sawWebsite {
		t.Fatalf("expected both a custom and a website embed, got %+v", m.Embeds)
	}

	// SaveEmbeds run a second time with no discoveries must still leave
	// the custom embed alone.
	if err := s.SaveEmbeds(ctx, messageID, nil); err != nil {
		t.Fatalf("SaveEmbeds (empty): %v", err)
	}
	m, err = s.GetMessage(ctx, messageID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if len(m.Embeds) != 1 || m.Embeds[0].Type != models.EmbedCustom {
		t.Fatalf("expected only the custom embed to survive, got %+v", m.Embeds)
	}
}

// TestEditMessageOmittedContentUnchanged covers §4.5's PATCH merge
// semantics: an edit that only sets embeds must not clear content.
func TestEditMessageOmittedContentUnchanged(t *testing.T) {
	s := newTestStore(t)
	_, messageID := seedMessage(t, s)
	ctx := context.Background()

	title := "embed only"
	embeds := []models.Embed{{Type: models.EmbedCustom, Custom: &models.CustomEmbed{Title: &title}}}
	if err := s.EditMessage(ctx, messageID, MessagePatch{HasEmbeds: true, Embeds: embeds}, 1); err != nil {
		t.Fatalf("EditMessage: %v", err)
	}

	m, err := s.GetMessage(ctx, messageID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if m.Content == nil || *m.Content != "hello" {
		t.Fatalf("expected content to remain \"hello\", got %+v", m.Content)
	}
	if len(m.Embeds) != 1 || m.Embeds[0].Type != models.EmbedCustom {
		t.Fatalf("expected the new custom embed to be applied, got %+v", m.Embeds)
	}
}
