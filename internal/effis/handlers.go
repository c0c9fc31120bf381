package effis

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/filestore"
	"github.com/eludris-go/eludris/internal/models"
)

// validBuckets is the full set of Effis upload destinations (§4.6).
var validBuckets = map[string]models.FileBucket{
	"attachments": models.BucketAttachments,
	"avatars":     models.BucketAvatars,
	"banners":     models.BucketBanners,
	"icons":       models.BucketIcons,
	"emojis":      models.BucketEmojis,
	"static":      models.BucketStatic,
}

func resolveBucket(raw string) (models.FileBucket, error) {
	b, ok := validBuckets[raw]
	if !ok {
		return "", apierror.Validationf("bucket", "unknown bucket %q", raw)
	}
	return b, nil
}

// handleUpload serves POST /{bucket}: a multipart form upload of one
// "file" part, gated by the bucket's configured size ceiling and rate
// limit (§4.6, §6.1).
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	bucket, err := resolveBucket(mux.Vars(r)["bucket"])
	if err != nil {
		writeError(w, err)
		return
	}

	limit := s.cfg.Effis.FileSize
	if bucket == models.BucketAttachments {
		limit = s.cfg.Effis.AttachmentFileSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	if err := r.ParseMultipartForm(limit + 1<<20); err != nil {
		writeError(w, apierror.Validationf("file", "could not parse multipart upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apierror.Validationf("file", "missing multipart file part"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeError(w, apierror.Internal("could not read upload", err))
		return
	}
	if int64(len(data)) > limit {
		writeError(w, apierror.Validationf("file", "exceeds the %d byte limit for bucket %q", limit, bucket))
		return
	}

	rlBucket := "assets"
	if bucket == models.BucketAttachments {
		rlBucket = "attachments"
	}
	if _, err := s.limiter.CheckWithCost(r.Context(), rlBucket, resolveIP(r), s.cfg.EffisRateLimit(rlBucket), int64(len(data))); err != nil {
		writeError(w, err)
		return
	}

	f, err := s.files.Upload(r.Context(), bucket, header.Filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) fetchFile(w http.ResponseWriter, r *http.Request) (models.File, []byte, bool) {
	if _, err := resolveBucket(mux.Vars(r)["bucket"]); err != nil {
		writeError(w, err)
		return models.File{}, nil, false
	}
	id, err := parseUintParam(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return models.File{}, nil, false
	}
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, perr := parseUintParam(raw)
		if perr != nil {
			writeError(w, perr)
			return models.File{}, nil, false
		}
		size = int(n)
	}
	f, data, err := s.files.Fetch(r.Context(), id, size, s.cfg.Effis.ResizableSizes)
	if err != nil {
		writeError(w, err)
		return models.File{}, nil, false
	}
	return f, data, true
}

// handleFetch serves GET /{bucket}/{id}[?size=]: returns the raw file,
// thumbnailed per §4.5's gating when size is given.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	f, data, ok := s.fetchFile(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", f.MimeType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleDownload serves GET /{bucket}/{id}/download: identical to
// handleFetch but forces a browser "Save As" via Content-Disposition
// (§6.1).
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	f, data, ok := s.fetchFile(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleMetadata serves GET /{bucket}/{id}/data: the file's JSON
// metadata without its bytes (§6.1).
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if _, err := resolveBucket(mux.Vars(r)["bucket"]); err != nil {
		writeError(w, err)
		return
	}
	id, err := parseUintParam(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	f, _, err := s.files.Fetch(r.Context(), id, 0, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// handleProxy serves GET /proxy?url=…: a bounded relay restricted to
// §4.5's content-type allow-list (invoked through filestore.ProxyFetch).
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, apierror.Validationf("url", "url is required"))
		return
	}
	data, contentType, err := filestore.ProxyFetch(r.Context(), s.client, rawURL, s.cfg.Effis.ProxyFileSize)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
