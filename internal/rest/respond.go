package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

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

// writeError serializes err as the wire-stable apierror.Error body,
// wrapping anything that isn't already one as a sanitized SERVER error
// so a raw driver/IO message never reaches the client.
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

func apiNotFound(what string) error {
	return apierror.NotFoundf("%s not found", what)
}

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// resolveIP extracts the client's real address, preferring proxy
// headers over the raw peer address, matching the gateway's resolution
// order (§4.9).
func resolveIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// decodeJSON decodes r's body into dst, returning a VALIDATION error on
// malformed JSON rather than a raw decode error.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.Validationf("body", "malformed request body")
	}
	return nil
}

// readBody slurps r's body so it can be both gjson-inspected for
// three-state PATCH presence and json.Unmarshal'd into a typed struct.
func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apierror.Validationf("body", "could not read request body")
	}
	return raw, nil
}

func unmarshalBody(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return apierror.Validationf("body", "malformed request body")
	}
	return nil
}

func parseUintParam(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, apierror.Validationf("id", "must be a valid numeric id")
	}
	return v, nil
}

func nowUnix() int64 { return time.Now().Unix() }
