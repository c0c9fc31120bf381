package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/cryptoutil"
	"github.com/eludris-go/eludris/internal/models"
)

type createSessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Platform string `json:"platform"`
	Client   string `json:"client"`
}

type createSessionResponse struct {
	Token   string         `json:"token"`
	Session models.Session `json:"session"`
}

// handleCreateSession serves POST /sessions (§4.9 login): issues a
// signed bearer token scoped to a fresh session row.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, apierror.Unauthorizedf("invalid credentials"))
		return
	}
	ok, err := cryptoutil.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil || !ok {
		writeError(w, apierror.Unauthorizedf("invalid credentials"))
		return
	}

	sess := models.Session{
		ID:       s.ids.Generate(),
		UserID:   user.ID,
		Platform: req.Platform,
		Client:   req.Client,
		IP:       resolveIP(r),
	}
	if err := s.store.CreateSession(r.Context(), sess, nowUnix()); err != nil {
		writeError(w, err)
		return
	}
	token, err := s.signer.Issue(cryptoutil.TokenClaims{UserID: user.ID, SessionID: sess.ID})
	if err != nil {
		writeError(w, apierror.Internal("could not issue session token", err))
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{Token: token, Session: sess})
}

// handleListSessions serves GET /sessions: every active session for the
// caller (§6.1).
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	sessions, err := s.store.ListSessions(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// handleDeleteSession serves DELETE /sessions/{id}: logging out either
// the current session or another one the caller owns.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	id, err := parseUintParam(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteSession(r.Context(), id, user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
