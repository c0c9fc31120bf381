package rest

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/mux"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/cryptoutil"
	"github.com/eludris-go/eludris/internal/models"
	"github.com/eludris-go/eludris/internal/store"
)

var usernamePattern = regexp.MustCompile(models.UsernamePattern)

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleCreateUser serves POST /users (§6.1): validates the handle
// shape, hashes the password, generates a verification code and sends
// it over email.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !usernamePattern.MatchString(req.Username) {
		writeError(w, apierror.Validationf("username", "must match %s", models.UsernamePattern))
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, apierror.Validationf("email", "must be a valid email address"))
		return
	}
	if len(req.Password) < 8 {
		writeError(w, apierror.Validationf("password", "must be at least 8 characters"))
		return
	}

	hash, err := cryptoutil.HashPassword(req.Password)
	if err != nil {
		writeError(w, apierror.Internal("could not hash password", err))
		return
	}
	code, err := cryptoutil.GenerateCode()
	if err != nil {
		writeError(w, apierror.Internal("could not generate verification code", err))
		return
	}

	user := models.User{
		ID:           s.ids.Generate(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Status:       models.Status{Type: models.StatusOffline},
	}
	if err := s.store.CreateUser(r.Context(), user, code, nowUnix()); err != nil {
		writeError(w, err)
		return
	}

	if err := s.mailer.SendVerification(r.Context(), user.Email, code); err != nil {
		s.log.Warn().Err(err).Uint64("user_id", user.ID).Msg("could not send verification email")
	}

	writeJSON(w, http.StatusCreated, user.Redacted(false, true))
}

// handleVerifyUser serves POST /users/verify?code=… (§6.1).
func (s *Server) handleVerifyUser(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	code := r.URL.Query().Get("code")

	stored, ok, err := s.store.VerificationCode(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok || stored != code {
		writeError(w, apierror.Validationf("code", "invalid or expired verification code"))
		return
	}
	if err := s.store.VerifyUser(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleResendVerification serves POST /users/resend-verification,
// gated purely by its own rate-limit bucket with no additional cooldown
// (§SPEC_FULL design note on resend_verification.rs).
func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	code, ok, err := s.store.VerificationCode(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, apierror.Validationf("user", "already verified"))
		return
	}
	if err := s.mailer.SendVerification(r.Context(), user.Email, code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type resetPasswordRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// handleResetPassword serves both halves of POST/PATCH
// /users/reset-password: POST issues a code, PATCH redeems one.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if r.Method == http.MethodPost {
		user, err := s.store.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			// Don't reveal whether the address has an account.
			writeJSON(w, http.StatusNoContent, nil)
			return
		}
		code, err := cryptoutil.GenerateCode()
		if err != nil {
			writeError(w, apierror.Internal("could not generate reset code", err))
			return
		}
		if err := s.store.SetPasswordResetCode(r.Context(), user.ID, code); err != nil {
			writeError(w, err)
			return
		}
		if err := s.mailer.SendPasswordReset(r.Context(), user.Email, code); err != nil {
			s.log.Warn().Err(err).Uint64("user_id", user.ID).Msg("could not send password reset email")
		}
		writeJSON(w, http.StatusNoContent, nil)
		return
	}

	if len(req.Password) < 8 {
		writeError(w, apierror.Validationf("password", "must be at least 8 characters"))
		return
	}
	user, err := s.store.ConsumePasswordResetCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	hash, err := cryptoutil.HashPassword(req.Password)
	if err != nil {
		writeError(w, apierror.Internal("could not hash password", err))
		return
	}
	if err := s.store.SetPassword(r.Context(), user.ID, hash); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleGetUser serves GET /users/{id|@me|username} (§6.1), auth optional.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ident := mux.Vars(r)["ident"]
	user, err := s.resolveUser(r.Context(), ident)
	if err != nil {
		writeError(w, err)
		return
	}
	caller, authed := userFromContext(r.Context())
	self := authed && caller.ID == user.ID
	online, _ := s.presence.IsOnline(r.Context(), user.ID)
	writeJSON(w, http.StatusOK, user.Redacted(online, self))
}

type updateUserRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	CurrentPassword string  `json:"current_password"`
}

// handleUpdateUser serves PATCH /users: username/email/password updates
// all require the caller's current password (§4.10).
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ok, err := cryptoutil.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil || !ok {
		writeError(w, apierror.Unauthorizedf("current password is incorrect"))
		return
	}
	if req.Username != nil {
		if !usernamePattern.MatchString(*req.Username) {
			writeError(w, apierror.Validationf("username", "must match %s", models.UsernamePattern))
			return
		}
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			writeError(w, apierror.Validationf("password", "must be at least 8 characters"))
			return
		}
		hash, err := cryptoutil.HashPassword(*req.Password)
		if err != nil {
			writeError(w, apierror.Internal("could not hash password", err))
			return
		}
		if err := s.store.SetPassword(r.Context(), user.ID, hash); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := s.store.UpdateUserCredentials(r.Context(), user.ID, req.Username, req.Email); err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.store.GetUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpUserUpdate, D: updated.Redacted(true, true)})
	writeJSON(w, http.StatusOK, updated.Redacted(true, true))
}

// handleUpdateProfile serves PATCH /users/profile, decoding the
// three-state display_name/bio/status/avatar/banner patch (§4.10).
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	raw, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body struct {
		DisplayName *string            `json:"display_name"`
		Bio         *string            `json:"bio"`
		StatusType  *models.StatusType `json:"status_type"`
		StatusText  *string            `json:"status_text"`
		Avatar      *uint64            `json:"avatar"`
		Banner      *uint64            `json:"banner"`
	}
	if err := unmarshalBody(raw, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Bio != nil && len(*body.Bio) > s.cfg.Oprish.BioLimit {
		writeError(w, apierror.Validationf("bio", "exceeds the %d character limit", s.cfg.Oprish.BioLimit))
		return
	}

	p := store.UserPatch{StatusType: body.StatusType}
	p.HasDisplayName, _ = fieldState(raw, "display_name")
	p.DisplayName = body.DisplayName
	p.HasBio, _ = fieldState(raw, "bio")
	p.Bio = body.Bio
	p.HasStatusText, _ = fieldState(raw, "status_text")
	p.StatusText = body.StatusText
	p.HasAvatar, _ = fieldState(raw, "avatar")
	p.AvatarID = body.Avatar
	p.HasBanner, _ = fieldState(raw, "banner")
	p.BannerID = body.Banner

	if err := s.store.UpdateUserProfile(r.Context(), user.ID, p); err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.store.GetUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.bus.Publish(models.Envelope{Op: models.OpUserUpdate, D: updated.Redacted(true, true)})
	writeJSON(w, http.StatusOK, updated.Redacted(true, true))
}

type deleteUserRequest struct {
	CurrentPassword string `json:"current_password"`
}

// handleDeleteUser serves DELETE /users: account tombstoning requires
// the caller's current password (§4.10).
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user := requireUser(r)
	var req deleteUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ok, err := cryptoutil.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil || !ok {
		writeError(w, apierror.Unauthorizedf("current password is incorrect"))
		return
	}
	if err := s.store.SoftDeleteUser(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
