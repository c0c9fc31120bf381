package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

type createCategoryRequest struct {
	Name string `json:"name"`
}

// handleCreateCategory serves POST /spheres/{sid}/categories (§4.7).
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	sid, err := parseUintParam(mux.Vars(r)["sid"])
	if err != nil {
		writeError(w, err)
		return
	}
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, apierror.Validationf("name", "must not be empty"))
		return
	}
	cat := models.Category{ID: s.ids.Generate(), SphereID: sid, Name: req.Name}
	if err := s.store.CreateCategory(r.Context(), cat); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.store.GetCategory(r.Context(), cat.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpCategoryCreate, D: created})
	writeJSON(w, http.StatusCreated, created)
}

type updateCategoryRequest struct {
	Name     *string `json:"name"`
	Position *uint32 `json:"position"`
}

// handleUpdateCategory serves PATCH /spheres/{sid}/categories/{cid}:
// rename and/or reorder, rejecting edits to the default category.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	cid, err := parseUintParam(mux.Vars(r)["cid"])
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		if err := s.store.RenameCategory(r.Context(), cid, *req.Name); err != nil {
			writeError(w, err)
			return
		}
	}
	if req.Position != nil {
		if err := s.store.MoveCategory(r.Context(), cid, *req.Position); err != nil {
			writeError(w, err)
			return
		}
	}
	updated, err := s.store.GetCategory(r.Context(), cid)
	if err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpCategoryEdit, D: updated})
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteCategory serves DELETE /spheres/{sid}/categories/{cid}.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
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
	if err := s.store.DeleteCategory(r.Context(), cid); err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpCategoryDelete, D: models.CategoryDeletePayload{SphereID: sid, CategoryID: cid}})
	writeJSON(w, http.StatusNoContent, nil)
}
