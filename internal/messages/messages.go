// Package messages is the message service (§4.5, §4.8): create/edit/
// delete plus reaction management, publishing every mutation onto the
// shared event bus for the gateway to fan out, and kicking off embed
// generation detached from the request that created the message.
package messages

import (
	"context"
	"time"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/embeds"
	"github.com/eludris-go/eludris/internal/ids"
	"github.com/eludris-go/eludris/internal/models"
	"github.com/eludris-go/eludris/internal/pubsub"
	"github.com/eludris-go/eludris/internal/store"
)

// Service mutates messages and publishes the gateway events their
// mutation implies.
type Service struct {
	store  *store.Store
	ids    *ids.Generator
	embeds *embeds.Generator
	bus    *pubsub.Bus[models.Envelope]
}

// New wires a message service over its dependencies.
func New(s *store.Store, gen *ids.Generator, e *embeds.Generator, bus *pubsub.Bus[models.Envelope]) *Service {
	return &Service{store: s, ids: gen, embeds: e, bus: bus}
}

// maxCustomEmbeds is §4.8's cap on caller-supplied embeds per message.
const maxCustomEmbeds = 10

// Create inserts a message and returns it, then starts the detached
// populate_embeds task in the background whenever content is non-empty
// (§4.8 — the task outlives the request that triggered it); the task
// saves and publishes nothing when the content yields no embeds.
// customEmbeds are caller-supplied CUSTOM embeds attached directly to
// the message rather than discovered from its content.
func (s *Service) Create(ctx context.Context, channelID uint64, authorID uint64, content *string, reference *uint64, attachments []models.Attachment, customEmbeds []models.CustomEmbed) (models.Message, error) {
	if len(customEmbeds) > maxCustomEmbeds {
		return models.Message{}, apierror.Validationf("embeds", "a message may carry at most %d embeds", maxCustomEmbeds)
	}
	embeds := make([]models.Embed, 0, len(customEmbeds))
	for _, ce := range customEmbeds {
		ce := ce
		embeds = append(embeds, models.Embed{Type: models.EmbedCustom, Custom: &ce})
	}
	m := models.Message{
		ID:          s.ids.Generate(),
		ChannelID:   channelID,
		AuthorID:    &authorID,
		Content:     content,
		Reference:   reference,
		Attachments: attachments,
		Embeds:      embeds,
	}
	if err := s.store.CreateMessage(ctx, m, time.Now().Unix()); err != nil {
		return m, err
	}
	full, err := s.store.GetMessage(ctx, m.ID)
	if err != nil {
		return m, err
	}
	s.bus.Publish(models.Envelope{Op: models.OpMessageCreate, D: full})
	if content != nil && *content != "" {
		go s.populateEmbeds(full.ID, full.ChannelID, *content)
	}
	return full, nil
}

func (s *Service) populateEmbeds(messageID, channelID uint64, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	found := s.embeds.GenerateAll(ctx, content)
	if len(found) == 0 {
		return
	}
	if err := s.store.SaveEmbeds(ctx, messageID, found); err != nil {
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpMessageEmbedPopulate, D: models.MessageEmbedPopulatePayload{
		ChannelID: channelID, MessageID: messageID, Embeds: found,
	}})
}

// EditPatch carries the three-state edit fields accepted from the REST
// layer: HasContent/HasEmbeds distinguish "omitted" from "explicitly
// set", mirroring store.MessagePatch (§4.5).
type EditPatch struct {
	HasContent bool
	Content    *string
	HasEmbeds  bool
	Embeds     []models.CustomEmbed
}

// Edit applies a partial message edit and publishes MESSAGE_UPDATE. An
// omitted field in p is left unchanged (§4.5's merge semantics).
func (s *Service) Edit(ctx context.Context, messageID, callerID uint64, p EditPatch) (models.Message, error) {
	existing, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return existing, err
	}
	if existing.AuthorID == nil || *existing.AuthorID != callerID {
		return existing, apierror.Forbiddenf("you can only edit your own messages")
	}
	if p.HasEmbeds && len(p.Embeds) > maxCustomEmbeds {
		return existing, apierror.Validationf("embeds", "a message may carry at most %d embeds", maxCustomEmbeds)
	}
	storePatch := store.MessagePatch{HasContent: p.HasContent, Content: p.Content}
	if p.HasEmbeds {
		embeds := make([]models.Embed, 0, len(p.Embeds))
		for _, ce := range p.Embeds {
			ce := ce
			embeds = append(embeds, models.Embed{Type: models.EmbedCustom, Custom: &ce})
		}
		storePatch.HasEmbeds, storePatch.Embeds = true, embeds
	}
	if err := s.store.EditMessage(ctx, messageID, storePatch, time.Now().Unix()); err != nil {
		return existing, err
	}
	updated, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return updated, err
	}
	s.bus.Publish(models.Envelope{Op: models.OpMessageUpdate, D: models.MessageUpdatePayload{
		ChannelID: updated.ChannelID, MessageID: messageID, Data: updated,
	}})
	return updated, nil
}

// Delete soft-deletes a message and publishes MESSAGE_DELETE. Callers
// must already have checked that the caller may delete it.
func (s *Service) Delete(ctx context.Context, messageID uint64) error {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	s.bus.Publish(models.Envelope{Op: models.OpMessageDelete, D: models.MessageDeletePayload{
		ChannelID: m.ChannelID, MessageID: messageID,
	}})
	return nil
}

// AddReaction records userID's reaction and publishes
// MESSAGE_REACTION_CREATE with userID as the reactor (the redesign flag
// fixing the original author-id bug).
func (s *Service) AddReaction(ctx context.Context, messageID, userID uint64, emoji string) error {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.store.AddReaction(ctx, messageID, emoji, userID); err != nil {
		return err
	}
	s.bus.Publish(models.Envelope{Op: models.OpMessageReactionCreate, D: models.MessageReactionCreatePayload{
		ChannelID: m.ChannelID, MessageID: messageID, UserID: userID, Emoji: emoji,
	}})
	return nil
}

// RemoveReaction deletes userID's reaction. Once the last reactor for an
// emoji leaves, the (message, emoji) row group disappears entirely
// (invariant 5): storage enforces this automatically since removing the
// last row leaves none behind.
func (s *Service) RemoveReaction(ctx context.Context, messageID, userID uint64, emoji string) error {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.store.RemoveReaction(ctx, messageID, emoji, userID); err != nil {
		return err
	}
	s.bus.Publish(models.Envelope{Op: models.OpMessageReactionDelete, D: models.MessageReactionDeletePayload{
		ChannelID: m.ChannelID, MessageID: messageID, UserID: userID, Emoji: emoji,
	}})
	return nil
}

// ClearReactions removes every reaction on a message and publishes
// MESSAGE_REACTION_CLEAR.
func (s *Service) ClearReactions(ctx context.Context, messageID uint64) error {
	m, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.store.ClearAllReactions(ctx, messageID); err != nil {
		return err
	}
	s.bus.Publish(models.Envelope{Op: models.OpMessageReactionClear, D: models.MessageReactionClearPayload{
		ChannelID: m.ChannelID, MessageID: messageID,
	}})
	return nil
}
