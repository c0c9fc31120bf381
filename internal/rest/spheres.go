package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
	"github.com/eludris-go/eludris/internal/store"
)

type createSphereRequest struct {
	Slug        string  `json:"slug"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// handleCreateSphere serves POST /spheres (§4.7): the creator becomes
// owner and first member, and an implicit default category is created
// alongside the sphere.
func (s *Server) handleCreateSphere(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	var req createSphereRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Slug == "" {
		writeError(w, apierror.Validationf("slug", "must not be empty"))
		return
	}

	sp := models.Sphere{
		ID:          s.ids.Generate(),
		OwnerID:     user.ID,
		Slug:        req.Slug,
		Name:        req.Name,
		Type:        models.SphereChat,
		Description: req.Description,
	}
	if err := s.store.CreateSphere(r.Context(), sp); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Join(r.Context(), user.ID, sp.ID, nowUnix()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

// handleGetSphere serves GET /spheres/{ident} (§8 scenario 1): nests
// live categories (with their channels) and the member list.
func (s *Server) handleGetSphere(w http.ResponseWriter, r *http.Request) {
	ident := mux.Vars(r)["ident"]
	sp, err := s.resolveSphere(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	cats, err := s.store.ListCategories(r.Context(), sp.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	populated := make([]models.CategoryPopulated, 0, len(cats))
	for _, c := range cats {
		channels, err := s.store.ListChannels(r.Context(), c.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if channels == nil {
			channels = []models.Channel{}
		}
		populated = append(populated, models.CategoryPopulated{Category: c, Channels: channels})
	}
	members, err := s.store.ListMembers(r.Context(), sp.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if members == nil {
		members = []models.Member{}
	}
	writeJSON(w, http.StatusOK, models.SpherePopulated{Sphere: sp, Categories: populated, Members: members})
}

// handleUpdateSphere serves PATCH /spheres/{ident}: owner-only, via the
// three-state patch contract (§4.7).
func (s *Server) handleUpdateSphere(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	ident := mux.Vars(r)["ident"]
	sp, err := s.resolveSphere(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	if sp.OwnerID != user.ID {
		writeError(w, apierror.Forbiddenf("only the sphere owner may edit it"))
		return
	}

	raw, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		Name        *string            `json:"name"`
		Description *string            `json:"description"`
		Type        *models.SphereType `json:"type"`
		Icon        *uint64            `json:"icon"`
		Banner      *uint64            `json:"banner"`
	}
	if err := unmarshalBody(raw, &body); err != nil {
		writeError(w, err)
		return
	}

	p := store.SpherePatch{Type: body.Type}
	p.HasName, _ = fieldState(raw, "name")
	p.Name = body.Name
	p.HasDescription, _ = fieldState(raw, "description")
	p.Description = body.Description
	p.HasIcon, _ = fieldState(raw, "icon")
	p.IconID = body.Icon
	p.HasBanner, _ = fieldState(raw, "banner")
	p.BannerID = body.Banner

	if err := s.store.UpdateSphere(r.Context(), sp.ID, p); err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.store.GetSphere(r.Context(), sp.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpSphereUpdate, D: models.SphereUpdatePayload{Data: updated, SphereID: updated.ID}})
	writeJSON(w, http.StatusOK, updated)
}

// handleJoinSphere serves POST /spheres/{ident}/join.
func (s *Server) handleJoinSphere(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	sp, err := s.resolveSphere(r.Context(), mux.Vars(r)["ident"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Join(r.Context(), user.ID, sp.ID, nowUnix()); err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpSphereMemberJoin, D: models.SphereMemberJoinPayload{User: user, SphereID: sp.ID}})
	writeJSON(w, http.StatusNoContent, nil)
}

// handleLeaveSphere serves POST /spheres/{ident}/leave. The owner may
// not leave their own sphere (§4.7 invariant: every sphere has an owner).
func (s *Server) handleLeaveSphere(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	sp, err := s.resolveSphere(r.Context(), mux.Vars(r)["ident"])
	if err != nil {
		writeError(w, err)
		return
	}
	if sp.OwnerID == user.ID {
		writeError(w, apierror.Forbiddenf("the sphere owner cannot leave their own sphere"))
		return
	}
	if err := s.store.Leave(r.Context(), user.ID, sp.ID); err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpSphereMemberLeave, D: models.SphereMemberLeavePayload{UserID: user.ID, SphereID: sp.ID}})
	writeJSON(w, http.StatusNoContent, nil)
}
