package effis

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/eludris-go/eludris/internal/apierror"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	apiErr, ok := apierror.As(err)
	if !ok {
		apiErr = apierror.Internal("an unexpected error occurred", err)
	}
	if apiErr.Kind == apierror.RateLimited {
		w.Header().Set("Retry-After", strconv.FormatInt(apiErr.RetryMs/1000, 10))
	}
	writeJSON(w, apiErr.Kind.Status(), apiErr)
}

// resolveIP mirrors the gateway's and Oprish's proxy-header resolution
// order (§4.9) so rate limiting keys on the same identity everywhere.
func resolveIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func parseUintParam(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, apierror.Validationf("id", "must be a valid numeric id")
	}
	return v, nil
}

// rateLimited wraps next behind the named bucket's limiter check (§4.2),
// writing the standard rate-limit headers regardless of outcome.
func (s *Server) rateLimited(bucket string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.limiter.Check(r.Context(), bucket, resolveIP(r), s.cfg.EffisRateLimit(bucket))
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
