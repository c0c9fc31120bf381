// Package effis serves the CDN/file service (§4.6, §6.1's Effis routes):
// multipart upload, content-addressed fetch with on-demand thumbnailing,
// and a bounded URL proxy. It mirrors internal/rest's router+middleware
// shape rather than sharing it, since Effis has no bearer-auth routes,
// only per-bucket rate limiting.
package effis

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/eludris-go/eludris/internal/config"
	"github.com/eludris-go/eludris/internal/filestore"
	"github.com/eludris-go/eludris/internal/ratelimit"
)

// Server wires the Effis HTTP surface over the shared filestore.
type Server struct {
	files   *filestore.Store
	cfg     *config.Config
	limiter *ratelimit.Limiter
	client  *http.Client
	log     zerolog.Logger
}

// New builds an Effis server.
func New(files *filestore.Store, cfg *config.Config, limiter *ratelimit.Limiter, client *http.Client, log zerolog.Logger) *Server {
	return &Server{files: files, cfg: cfg, limiter: limiter, client: client, log: log}
}

// Router builds the Effis mux: POST/GET /{bucket}, GET
// /{bucket}/{id}[/download|/data], GET /proxy?url=… (§6.1).
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)

	r.HandleFunc("/proxy", s.rateLimited("proxy_file", s.handleProxy)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/{bucket}", s.rateLimited("assets", s.handleUpload)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/{bucket}/{id}", s.rateLimited("fetch_file", s.handleFetch)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/{bucket}/{id}/download", s.rateLimited("fetch_file", s.handleDownload)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/{bucket}/{id}/data", s.rateLimited("fetch_file", s.handleMetadata)).Methods(http.MethodGet, http.MethodOptions)
	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers",
			"X-RateLimit-Reset, X-RateLimit-Max, X-RateLimit-Last-Reset, X-RateLimit-Request-Count, Retry-After")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
