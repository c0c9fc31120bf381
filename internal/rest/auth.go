package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/models"
)

type ctxKey int

const (
	ctxUserKey ctxKey = iota
	ctxSessionKey
)

// authenticate validates the bearer token on r, if any, and returns a
// context carrying the resolved user and session. Callers decide whether
// a missing/invalid token is fatal (withAuth) or ignorable (withOptionalAuth).
func (s *Server) authenticate(r *http.Request) (context.Context, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return r.Context(), apierror.Unauthorizedf("missing Authorization header")
	}
	token := strings.TrimPrefix(header, "Bearer ")

	claims, err := s.signer.Parse(token)
	if err != nil {
		return r.Context(), apierror.Unauthorizedf("invalid credentials")
	}
	sess, err := s.store.GetSession(r.Context(), claims.SessionID)
	if err != nil {
		return r.Context(), apierror.Unauthorizedf("invalid credentials")
	}
	user, err := s.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		return r.Context(), apierror.Unauthorizedf("invalid credentials")
	}

	ctx := context.WithValue(r.Context(), ctxUserKey, user)
	ctx = context.WithValue(ctx, ctxSessionKey, sess)
	return ctx, nil
}

func userFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(ctxUserKey).(models.User)
	return u, ok
}

func sessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(ctxSessionKey).(models.Session)
	return s, ok
}

// requireUser is the common case inside a withAuth-wrapped handler: the
// context is always populated by the time a withAuth handler runs, so a
// miss here means a handler was wired to the wrong middleware.
func requireUser(r *http.Request) models.User {
	u, _ := userFromContext(r.Context())
	return u
}

// corsMiddleware implements §6.2's CORS policy verbatim, including the
// 204 on an unmatched OPTIONS preflight.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Expose-Headers",
			"X-RateLimit-Reset, X-RateLimit-Max, X-RateLimit-Last-Reset, X-RateLimit-Request-Count, Retry-After")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
