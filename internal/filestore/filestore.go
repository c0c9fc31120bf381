// Package filestore implements the upload, fetch-with-thumbnail and
// URL-proxy contracts of Effis (§4.6). Upload dedups by content hash
// within a bucket and strips metadata from re-encoded JPEGs; fetch
// thumbnails on demand using github.com/disintegration/imaging, the
// library the avatar-resize pipeline in the example pack uses, here in an
// aspect-preserving Fit+Lanczos+Encode shape, with animated GIFs re-encoded
// frame-by-frame through the standard library's image/gif since
// imaging flattens animation to a single frame.
package filestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/ids"
	"github.com/eludris-go/eludris/internal/models"
	"github.com/eludris-go/eludris/internal/store"
)

// Store is the filesystem-backed blob layer sitting behind the entity
// store's file metadata rows.
type Store struct {
	root     string
	entities *store.Store
	ids      *ids.Generator
}

// New roots blob storage at dir.
func New(dir string, entities *store.Store, gen *ids.Generator) *Store {
	return &Store{root: dir, entities: entities, ids: gen}
}

func (s *Store) blobPath(bucket models.FileBucket, hash string) string {
	return filepath.Join(s.root, string(bucket), hash)
}

// Upload stores data under bucket and always records a fresh File row,
// but shares one on-disk blob (and one Blob row) across every upload of
// identical bytes (§4.6 invariant 7, §8 scenario 5): a repeat upload
// comes back with a new id whose BlobID points at the original blob.
// JPEG uploads are re-encoded through the standard library to strip
// EXIF/metadata before the hash is computed, matching §4.6's stated
// stripping behaviour.
func (s *Store) Upload(ctx context.Context, bucket models.FileBucket, name string, data []byte) (models.File, error) {
	mimeType := http.DetectContentType(data)
	if mimeType == "image/jpeg" {
		if stripped, err := stripJPEGMetadata(data); err == nil {
			data = stripped
		}
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	blob, ok, err := s.entities.FindBlobByHash(ctx, bucket, hash)
	if err != nil {
		return models.File{}, err
	}
	if !ok {
		path := s.blobPath(bucket, hash)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return models.File{}, err
		}
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return models.File{}, err
		}
		if err := os.Rename(tmp, path); err != nil {
			return models.File{}, err
		}

		b := models.Blob{
			ID:       s.ids.Generate(),
			Bucket:   bucket,
			Hash:     hash,
			MimeType: mimeType,
			Size:     int64(len(data)),
		}
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			w, h := cfg.Width, cfg.Height
			b.Width, b.Height = &w, &h
		}
		blob, err = s.entities.CreateBlob(ctx, b, time.Now().Unix())
		if err != nil {
			return models.File{}, err
		}
	}

	return s.entities.CreateFile(ctx, s.ids.Generate(), blob.ID, bucket, name, time.Now().Unix())
}

// resizableBuckets is §4.5's set of buckets that may carry a ?size=
// thumbnail request; Fetch rejects a size request on any other bucket
// with a VALIDATION error.
var resizableBuckets = map[models.FileBucket]bool{
	models.BucketAvatars: true,
	models.BucketIcons:   true,
	models.BucketEmojis:  true,
}

// Fetch returns the stored blob, thumbnailed to size if size > 0, the
// file is an image, its bucket is in the resizable set, and size is
// one of allowedSizes (§4.5). A size request against a non-resizable
// bucket or an un-allow-listed size is rejected rather than silently
// ignored. Thumbnails are memoized on disk at "{hash}-{size}" via the
// same temp-then-rename pattern as Upload so concurrent requests never
// observe a half-written file.
func (s *Store) Fetch(ctx context.Context, fileID uint64, size int, allowedSizes []int) (models.File, []byte, error) {
	f, err := s.entities.GetFile(ctx, fileID)
	if err != nil {
		return f, nil, err
	}
	path := s.blobPath(f.Bucket, f.Hash)
	if size <= 0 {
		data, err := os.ReadFile(path)
		return f, data, err
	}

	if !resizableBuckets[f.Bucket] {
		return f, nil, apierror.Validationf("size", "bucket %q does not support thumbnailing", f.Bucket)
	}
	if !intSliceContains(allowedSizes, size) {
		return f, nil, apierror.Validationf("size", "size %d is not an allowed thumbnail size", size)
	}

	thumbPath := fmt.Sprintf("%s-%d", path, size)
	if data, err := os.ReadFile(thumbPath); err == nil {
		return f, data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return f, nil, err
	}
	thumb, ok := thumbnail(data, f.MimeType, size)
	if !ok {
		return f, data, nil
	}
	tmp := thumbPath + ".tmp"
	if err := os.WriteFile(tmp, thumb, 0o644); err == nil {
		_ = os.Rename(tmp, thumbPath)
	}
	return f, thumb, nil
}

func intSliceContains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func thumbnail(data []byte, mimeType string, size int) ([]byte, bool) {
	switch mimeType {
	case "image/gif":
		return thumbnailGIF(data, size)
	case "image/jpeg", "image/png", "image/webp":
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, false
		}
		resized := imaging.Fit(img, size, size, imaging.Lanczos)
		var buf bytes.Buffer
		format := imaging.JPEG
		if mimeType == "image/png" {
			format = imaging.PNG
		}
		if err := imaging.Encode(&buf, resized, format); err != nil {
			return nil, false
		}
		return buf.Bytes(), true
	default:
		return nil, false
	}
}

// thumbnailGIF resizes every frame independently to preserve animation,
// since imaging.Decode collapses an animated GIF to its first frame.
func thumbnailGIF(data []byte, size int) ([]byte, bool) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	for i, frame := range g.Image {
		resized := imaging.Fit(frame, size, size, imaging.Lanczos)
		paletted := image.NewPaletted(resized.Bounds(), frame.Palette)
		for y := resized.Bounds().Min.Y; y < resized.Bounds().Max.Y; y++ {
			for x := resized.Bounds().Min.X; x < resized.Bounds().Max.X; x++ {
				paletted.Set(x, y, resized.At(x, y))
			}
		}
		g.Image[i] = paletted
	}
	g.Config.Width, g.Config.Height = size, size
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func stripJPEGMetadata(data []byte) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// proxyAllowedContentTypes is §4.5's allow-list: the proxy only ever
// relays the image/video types the client embeds inline, never an
// arbitrary upstream payload.
var proxyAllowedContentTypes = map[string]bool{
	"image/gif":       true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
}

// ProxyFetch performs a bounded GET for §4.6's URL proxy endpoint,
// enforcing a content-type allow-list and a hard size ceiling so the
// instance never relays arbitrary large payloads. A missing or
// non-allow-listed Content-Type is rejected outright rather than
// rewritten to a generic type (§4.5).
func ProxyFetch(ctx context.Context, client *http.Client, rawURL string, maxBytes int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", apierror.Misdirectedf("could not reach upstream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", apierror.Misdirectedf("upstream returned HTTP %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		return nil, "", apierror.Misdirectedf("upstream did not return a Content-Type header")
	}
	if !proxyAllowedContentTypes[contentType] {
		return nil, "", apierror.Misdirectedf("upstream Content-Type %q is not allowed by the proxy", contentType)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxBytes {
		return nil, "", apierror.Validationf("url", "upstream file exceeds the proxy size limit")
	}
	return data, contentType, nil
}
