package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
	"github.com/eludris-go/eludris/internal/store"
)

type createChannelRequest struct {
	CategoryID uint64             `json:"category_id"`
	Name       string             `json:"name"`
	Type       models.ChannelType `json:"type"`
	Topic      *string            `json:"topic"`
}

// handleCreateChannel serves POST /spheres/{sid}/channels (§4.7).
func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	sid, err := parseUintParam(mux.Vars(r)["sid"])
	if err != nil {
		writeError(w, err)
		return
	}
	var req createChannelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, apierror.Validationf("name", "must not be empty"))
		return
	}
	if req.Type == "" {
		req.Type = models.ChannelText
	}
	ch := models.Channel{
		ID:         s.ids.Generate(),
		SphereID:   sid,
		Name:       req.Name,
		Type:       req.Type,
		Topic:      req.Topic,
		CategoryID: req.CategoryID,
	}
	if err := s.store.CreateChannel(r.Context(), ch); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.store.GetChannel(r.Context(), ch.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpSphereChannelCreate, D: created})
	writeJSON(w, http.StatusCreated, created)
}

type updateChannelRequest struct {
	Name       *string `json:"name"`
	Topic      *string `json:"topic"`
	HasTopic   bool    `json:"-"`
	CategoryID *uint64 `json:"category_id"`
	Position   *uint32 `json:"position"`
}

// handleUpdateChannel serves PATCH /spheres/{sid}/channels/{cid}: name,
// topic and/or a move to a (possibly different) category (§4.7).
func (s *Server) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	cid, err := parseUintParam(mux.Vars(r)["cid"])
	if err != nil {
		writeError(w, err)
		return
	}
	raw, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateChannelRequest
	if err := unmarshalBody(raw, &req); err != nil {
		writeError(w, err)
		return
	}
	req.HasTopic, _ = fieldState(raw, "topic")

	if req.Name != nil || req.HasTopic {
		p := store.ChannelPatch{Name: req.Name, Topic: req.Topic, HasTopic: req.HasTopic}
		if err := s.store.UpdateChannel(r.Context(), cid, p); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Position != nil {
		ch, err := s.store.GetChannel(r.Context(), cid)
		if err != nil {
			writeError(w, err)
			return
		}
		dest := ch.CategoryID
		if req.CategoryID != nil {
			dest = *req.CategoryID
		}
		if err := s.store.MoveChannel(r.Context(), cid, dest, *req.Position); err != nil {
			writeError(w, err)
			return
		}
	}
	updated, err := s.store.GetChannel(r.Context(), cid)
	if err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpSphereChannelUpdate, D: updated})
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteChannel serves DELETE /spheres/{sid}/channels/{cid}.
func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	sid, err := parseUintParam(mux.Vars(r)["sid"])
	if err != nil {
		writeError(w, err)
		return
	}
	cid, err := parseUintParam(mux.Vars(r)["cid"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteChannel(r.Context(), cid); err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpSphereChannelDelete, D: models.SphereChannelDeletePayload{SphereID: sid, ChannelID: cid}})
	writeJSON(w, http.StatusNoContent, nil)
}
