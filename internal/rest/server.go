// Package rest implements Oprish, the REST API described in §4.11 and
// §6.1: a gorilla/mux router with CORS, bearer-auth and rate-limit
// middleware in front of handlers that shell out to the domain packages
// (store, messages, filestore, email) for everything but request
// decoding and response shaping.
package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/eludris-go/eludris/internal/config"
	"github.com/eludris-go/eludris/internal/cryptoutil"
	"github.com/eludris-go/eludris/internal/email"
	"github.com/eludris-go/eludris/internal/filestore"
	"github.com/eludris-go/eludris/internal/ids"
	"github.com/eludris-go/eludris/internal/messages"
	"github.com/eludris-go/eludris/internal/models"
	"github.com/eludris-go/eludris/internal/presence"
	"github.com/eludris-go/eludris/internal/pubsub"
	"github.com/eludris-go/eludris/internal/ratelimit"
	"github.com/eludris-go/eludris/internal/store"
)

// Server holds every dependency Oprish's handlers need.
type Server struct {
	store    *store.Store
	signer   *cryptoutil.Signer
	ids      *ids.Generator
	limiter  *ratelimit.Limiter
	presence *presence.Tracker
	bus      *pubsub.Bus[models.Envelope]
	messages *messages.Service
	files    *filestore.Store
	mailer   email.Sender
	cfg      *config.Config
	log      zerolog.Logger
}

// New wires an Oprish server over its dependencies. bus is the same
// event bus the gateway subscribes to: the message service publishes
// message/reaction events onto it directly, while this package's own
// handlers publish the user/sphere/member/channel/category/emoji events
// §6.3 lists (USER_UPDATE, SPHERE_UPDATE, SPHERE_MEMBER_JOIN/LEAVE, ...).
func New(s *store.Store, signer *cryptoutil.Signer, gen *ids.Generator, limiter *ratelimit.Limiter, pres *presence.Tracker, bus *pubsub.Bus[models.Envelope], msgs *messages.Service, files *filestore.Store, mailer email.Sender, cfg *config.Config, log zerolog.Logger) *Server {
	return &Server{store: s, signer: signer, ids: gen, limiter: limiter, presence: pres, bus: bus, messages: msgs, files: files, mailer: mailer, cfg: cfg, log: log}
}

// Router builds the full Oprish route table (§6.1).
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, apiNotFound("route"))
	})

	r.HandleFunc("/", s.rateLimited(s.handleInstanceInfo)).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc("/users", s.rateLimited(s.handleCreateUser)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/users/verify", s.withAuth(s.handleVerifyUser)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/users/resend-verification", s.withAuth(s.handleResendVerification)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/users/reset-password", s.rateLimited(s.handleResetPassword)).Methods(http.MethodPost, http.MethodPatch, http.MethodOptions)
	r.HandleFunc("/users/profile", s.withAuth(s.handleUpdateProfile)).Methods(http.MethodPatch, http.MethodOptions)
	r.HandleFunc("/users", s.withAuth(s.handleUpdateUser)).Methods(http.MethodPatch, http.MethodOptions)
	r.HandleFunc("/users", s.withAuth(s.handleDeleteUser)).Methods(http.MethodDelete, http.MethodOptions)
	r.HandleFunc("/users/{ident}", s.withOptionalAuth(s.handleGetUser)).Methods(http.MethodGet, http.MethodOptions)

	r.HandleFunc("/sessions", s.rateLimited(s.handleCreateSession)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/sessions", s.withAuth(s.handleListSessions)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/sessions/{id}", s.withAuth(s.handleDeleteSession)).Methods(http.MethodDelete, http.MethodOptions)

	r.HandleFunc("/spheres", s.withAuth(s.handleCreateSphere)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/spheres/{ident}", s.withOptionalAuth(s.handleGetSphere)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/spheres/{ident}", s.withAuth(s.handleUpdateSphere)).Methods(http.MethodPatch, http.MethodOptions)
	r.HandleFunc("/spheres/{ident}/join", s.withAuth(s.handleJoinSphere)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/spheres/{ident}/leave", s.withAuth(s.handleLeaveSphere)).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/spheres/{sid}/categories", s.withAuth(s.handleCreateCategory)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/spheres/{sid}/categories/{cid}", s.withAuth(s.handleUpdateCategory)).Methods(http.MethodPatch, http.MethodOptions)
	r.HandleFunc("/spheres/{sid}/categories/{cid}", s.withAuth(s.handleDeleteCategory)).Methods(http.MethodDelete, http.MethodOptions)

	r.HandleFunc("/spheres/{sid}/channels", s.withAuth(s.handleCreateChannel)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/spheres/{sid}/channels/{cid}", s.withAuth(s.handleUpdateChannel)).Methods(http.MethodPatch, http.MethodOptions)
	r.HandleFunc("/spheres/{sid}/channels/{cid}", s.withAuth(s.handleDeleteChannel)).Methods(http.MethodDelete, http.MethodOptions)

	r.HandleFunc("/spheres/{sid}/members/{ident}", s.withAuth(s.handleGetMember)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/spheres/{sid}/members/{ident}", s.withAuth(s.handleUpdateMember)).Methods(http.MethodPatch, http.MethodOptions)

	r.HandleFunc("/spheres/{sid}/emojis", s.withAuth(s.handleCreateEmoji)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/spheres/{sid}/emojis", s.withOptionalAuth(s.handleListEmojis)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/emojis/{id}", s.withAuth(s.handleUpdateEmoji)).Methods(http.MethodPatch, http.MethodOptions)
	r.HandleFunc("/emojis/{id}", s.withAuth(s.handleDeleteEmoji)).Methods(http.MethodDelete, http.MethodOptions)

	r.HandleFunc("/channels/{cid}/messages", s.withAuth(s.handleCreateMessage)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/channels/{cid}/messages", s.withAuth(s.handleListMessages)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/channels/{cid}/messages/{mid}", s.withAuth(s.handleGetMessage)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/channels/{cid}/messages/{mid}", s.withAuth(s.handleEditMessage)).Methods(http.MethodPatch, http.MethodOptions)
	r.HandleFunc("/channels/{cid}/messages/{mid}", s.withAuth(s.handleDeleteMessage)).Methods(http.MethodDelete, http.MethodOptions)
	r.HandleFunc("/channels/{cid}/messages/{mid}/emojis", s.withAuth(s.handleAddReaction)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/channels/{cid}/messages/{mid}/emojis/{emoji}", s.withAuth(s.handleRemoveReaction)).Methods(http.MethodDelete, http.MethodOptions)
	r.HandleFunc("/channels/{cid}/messages/{mid}/reactions/clear", s.withAuth(s.handleClearReactions)).Methods(http.MethodDelete, http.MethodOptions)

	return r
}

// withAuth requires a valid bearer token, 401ing otherwise.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return s.rateLimited(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := s.authenticate(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r.WithContext(ctx))
	})
}

// withOptionalAuth attaches caller identity when a valid token is
// present, but never rejects an anonymous request (§6.1's "optional").
func (s *Server) withOptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return s.rateLimited(func(w http.ResponseWriter, r *http.Request) {
		if ctx, err := s.authenticate(r); err == nil {
			r = r.WithContext(ctx)
		}
		next(w, r)
	})
}

// rateLimited wraps a handler with the generic per-route limiter keyed
// by the route's last path segment, falling back to the caller's IP as
// subject until authentication (if any) narrows it to a user id.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bucket := routeBucket(r)
		subject := resolveIP(r)
		if user, ok := userFromContext(r.Context()); ok {
			subject = itoa(user.ID)
		}
		res, err := s.limiter.Check(r.Context(), bucket, subject, s.cfg.RateLimit(bucket))
		for k, v := range res.Headers() {
			w.Header().Set(k, v)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r)
	}
}

// routeBucket derives a rate-limit bucket name from the mux route,
// falling back to "default" for anything unconfigured.
func routeBucket(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "default"
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return "default"
	}
	switch {
	case tpl == "/":
		return "info"
	case tpl == "/sessions" && r.Method == http.MethodPost:
		return "create_session"
	case tpl == "/channels/{cid}/messages" && r.Method == http.MethodPost:
		return "create_message"
	case tpl == "/spheres/{ident}" && r.Method == http.MethodGet:
		return "get_sphere"
	default:
		return "default"
	}
}
