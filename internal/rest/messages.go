package rest

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/messages"
	"github.com/eludris-go/eludris/internal/models"
)

type createMessageRequest struct {
	Content     *string               `json:"content"`
	Reference   *uint64               `json:"reference"`
	Attachments []createAttachmentRef `json:"attachments"`
	Embeds      []createEmbedRequest  `json:"embeds"`
}

type createAttachmentRef struct {
	FileID      uint64  `json:"id"`
	Description *string `json:"description"`
	Spoiler     bool    `json:"spoiler"`
}

// createEmbedRequest is a caller-supplied CUSTOM embed (§4.8).
type createEmbedRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Colour      *string            `json:"colour"`
	Thumbnail   *models.MediaEmbed `json:"thumbnail"`
}

func toCustomEmbeds(reqs []createEmbedRequest) []models.CustomEmbed {
	out := make([]models.CustomEmbed, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, models.CustomEmbed{
			Title: r.Title, Description: r.Description, Colour: r.Colour, Thumbnail: r.Thumbnail,
		})
	}
	return out
}

const defaultMessagePageSize = 50

// handleCreateMessage serves POST /channels/{cid}/messages (§4.5, §4.8).
func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	cid, err := parseUintParam(mux.Vars(r)["cid"])
	if err != nil {
		writeError(w, err)
		return
	}
	var req createMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Content != nil && len(*req.Content) > s.cfg.Oprish.MessageLimit {
		writeError(w, apierror.Validationf("content", "exceeds the %d character limit", s.cfg.Oprish.MessageLimit))
		return
	}
	attachments := make([]models.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, models.Attachment{FileID: a.FileID, Description: a.Description, Spoiler: a.Spoiler})
	}
	msg, err := s.messages.Create(r.Context(), cid, user.ID, req.Content, req.Reference, attachments, toCustomEmbeds(req.Embeds))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// handleListMessages serves GET /channels/{cid}/messages?before=&limit=.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	cid, err := parseUintParam(mux.Vars(r)["cid"])
	if err != nil {
		writeError(w, err)
		return
	}
	var beforeID uint64
	if raw := r.URL.Query().Get("before"); raw != "" {
		beforeID, err = parseUintParam(raw)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	limit := defaultMessagePageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	msgs, err := s.store.ListMessages(r.Context(), cid, beforeID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// handleGetMessage serves GET /channels/{cid}/messages/{mid}.
func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	mid, err := parseUintParam(mux.Vars(r)["mid"])
	if err != nil {
		writeError(w, err)
		return
	}
	msg, err := s.store.GetMessage(r.Context(), mid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// handleEditMessage serves PATCH /channels/{cid}/messages/{mid}. Both
// "content" and "embeds" follow the three-state PATCH convention: an
// omitted key leaves that field untouched (§4.5).
func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	mid, err := parseUintParam(mux.Vars(r)["mid"])
	if err != nil {
		writeError(w, err)
		return
	}
	raw, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Content *string              `json:"content"`
		Embeds  []createEmbedRequest `json:"embeds"`
	}
	if err := unmarshalBody(raw, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Content != nil && len(*body.Content) > s.cfg.Oprish.MessageLimit {
		writeError(w, apierror.Validationf("content", "exceeds the %d character limit", s.cfg.Oprish.MessageLimit))
		return
	}

	p := messages.EditPatch{Content: body.Content}
	p.HasContent, _ = fieldState(raw, "content")
	if has, _ := fieldState(raw, "embeds"); has {
		p.HasEmbeds, p.Embeds = true, toCustomEmbeds(body.Embeds)
	}

	msg, err := s.messages.Edit(r.Context(), mid, user.ID, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// handleDeleteMessage serves DELETE /channels/{cid}/messages/{mid}: only
// the message's author may delete it (§4.5).
func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	mid, err := parseUintParam(mux.Vars(r)["mid"])
	if err != nil {
		writeError(w, err)
		return
	}
	msg, err := s.store.GetMessage(r.Context(), mid)
	if err != nil {
		writeError(w, err)
		return
	}
	if msg.AuthorID == nil || *msg.AuthorID != user.ID {
		writeError(w, apierror.Forbiddenf("you can only delete your own messages"))
		return
	}
	if err := s.messages.Delete(r.Context(), mid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type addReactionRequest struct {
	Emoji string `json:"emoji"`
}

// handleAddReaction serves POST /channels/{cid}/messages/{mid}/emojis.
func (s *Server) handleAddReaction(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	mid, err := parseUintParam(mux.Vars(r)["mid"])
	if err != nil {
		writeError(w, err)
		return
	}
	var req addReactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.messages.AddReaction(r.Context(), mid, user.ID, req.Emoji); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleRemoveReaction serves DELETE /channels/{cid}/messages/{mid}/emojis/{emoji}.
func (s *Server) handleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	mid, err := parseUintParam(mux.Vars(r)["mid"])
	if err != nil {
		writeError(w, err)
		return
	}
	emoji := mux.Vars(r)["emoji"]
	if err := s.messages.RemoveReaction(r.Context(), mid, user.ID, emoji); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleClearReactions serves DELETE /channels/{cid}/messages/{mid}/reactions/clear.
func (s *Server) handleClearReactions(w http.ResponseWriter, r *http.Request) {
	mid, err := parseUintParam(mux.Vars(r)["mid"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.messages.ClearReactions(r.Context(), mid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
