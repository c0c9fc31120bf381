package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eludris-go/eludris/internal/apierror"
)

// memberIdent resolves `{sid}/members/{ident}` to a (userID, Member) pair.
func (s *Server) memberIdent(w http.ResponseWriter, r *http.Request) (uint64, uint64, bool) {
	sid, err := parseUintParam(mux.Vars(r)["sid"])
	if err != nil {
		writeError(w, err)
		return 0, 0, false
	}
	user, err := s.resolveUser(r.Context(), mux.Vars(r)["ident"])
	if err != nil {
		writeError(w, err)
		return 0, 0, false
	}
	return user.ID, sid, true
}

// handleGetMember serves GET /spheres/{sid}/members/{ident}.
func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	uid, sid, ok := s.memberIdent(w, r)
	if !ok {
		return
	}
	member, err := s.store.GetMember(r.Context(), uid, sid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

type updateMemberRequest struct {
	Nickname *string `json:"nickname"`
}

// handleUpdateMember serves PATCH /spheres/{sid}/members/{ident}: the
// caller may only override their own sphere-local nickname.
func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	uid, sid, ok := s.memberIdent(w, r)
	if !ok {
		return
	}
	if requireUser(r).ID != uid {
		writeError(w, apierror.Forbiddenf("you may only edit your own sphere nickname"))
		return
	}
	var req updateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.UpdateMemberOverrides(r.Context(), uid, sid, req.Nickname); err != nil {
		writeError(w, err)
		return
	}
	member, err := s.store.GetMember(r.Context(), uid, sid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}
