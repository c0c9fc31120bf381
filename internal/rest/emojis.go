package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

type createEmojiRequest struct {
	Name   string `json:"name"`
	FileID uint64 `json:"file_id"`
}

// handleCreateEmoji serves POST /spheres/{sid}/emojis: the file must
// already have been uploaded to the emojis bucket via Effis (§4.7, §7).
func (s *Server) handleCreateEmoji(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	sid, err := parseUintParam(mux.Vars(r)["sid"])
	if err != nil {
		writeError(w, err)
		return
	}
	var req createEmojiRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Name) < 2 || len(req.Name) > 32 {
		writeError(w, apierror.Validationf("name", "must be between 2 and 32 characters"))
		return
	}
	e := models.Emoji{ID: s.ids.Generate(), SphereID: sid, Name: req.Name, FileID: req.FileID, UploaderID: user.ID}
	if err := s.store.CreateEmoji(r.Context(), e); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.store.GetEmoji(r.Context(), e.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpEmojiCreate, D: created})
	writeJSON(w, http.StatusCreated, created)
}

// handleListEmojis serves GET /spheres/{sid}/emojis.
func (s *Server) handleListEmojis(w http.ResponseWriter, r *http.Request) {
	sid, err := parseUintParam(mux.Vars(r)["sid"])
	if err != nil {
		writeError(w, err)
		return
	}
	emojis, err := s.store.ListEmojis(r.Context(), sid)
	if err != nil {
		writeError(w, err)
		return
	}
	if emojis == nil {
		emojis = []models.Emoji{}
	}
	writeJSON(w, http.StatusOK, emojis)
}

type updateEmojiRequest struct {
	Name string `json:"name"`
}

// handleUpdateEmoji serves PATCH /emojis/{id}.
func (s *Server) handleUpdateEmoji(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateEmojiRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Name) < 2 || len(req.Name) > 32 {
		writeError(w, apierror.Validationf("name", "must be between 2 and 32 characters"))
		return
	}
	if err := s.store.RenameEmoji(r.Context(), id, req.Name); err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.store.GetEmoji(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpEmojiUpdate, D: updated})
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteEmoji serves DELETE /emojis/{id}.
func (s *Server) handleDeleteEmoji(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	emoji, err := s.store.GetEmoji(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteEmoji(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpEmojiDelete, D: models.EmojiDeletePayload{SphereID: emoji.SphereID, EmojiID: id}})
	writeJSON(w, http.StatusNoContent, nil)
}
