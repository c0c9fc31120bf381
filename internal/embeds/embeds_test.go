package embeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eludris-go/eludris/internal/cache"
	"github.com/eludris-go/eludris/internal/models"
)

// TestFetchOEmbedDispatch covers §4.8's YouTube/Spotify special-casing:
// matchOEmbedProvider recognizes the YouTube and Spotify hostnames that
// fetch routes through fetchOEmbed, and matches no other host.
func TestFetchOEmbedDispatch(t *testing.T) {
	provider, typ, ok := matchOEmbedProvider("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if !ok || typ != models.EmbedYouTube {
		t.Fatalf("expected a YouTube oEmbed match, got provider=%q typ=%q ok=%v", provider, typ, ok)
	}
	provider, typ, ok = matchOEmbedProvider("https://open.spotify.com/track/abc123")
	if !ok || typ != models.EmbedSpotify {
		t.Fatalf("expected a Spotify oEmbed match, got provider=%q typ=%q ok=%v", provider, typ, ok)
	}
	if _, _, ok := matchOEmbedProvider("https://example.com/page"); ok {
		t.Fatal("a generic URL should not match an oEmbed provider")
	}
}

func TestFetchOEmbedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"a video","author_name":"someone","provider_name":"YouTube"}`))
	}))
	defer server.Close()

	g := New(DefaultConfig(), cache.NewMemory(time.Minute))
	e, err := g.fetchOEmbed(context.Background(), "https://www.youtube.com/watch?v=x", server.URL+"?url=%s", models.EmbedYouTube)
	if err != nil {
		t.Fatalf("fetchOEmbed: %v", err)
	}
	if e.Type != models.EmbedYouTube || e.OEmbed == nil || e.OEmbed.Title == nil || *e.OEmbed.Title != "a video" {
		t.Fatalf("unexpected embed: %+v", e)
	}
}

// TestFetchTruncatesLongDescription covers §4.8's 4093-char cap on
// scraped descriptions.
func TestFetchTruncatesLongDescription(t *testing.T) {
	longDesc := strings.Repeat("a", 5000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>t</title><meta name="description" content="` + longDesc + `"></head></html>`))
	}))
	defer server.Close()

	g := New(DefaultConfig(), cache.NewMemory(time.Minute))
	e, err := g.fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if e.Website == nil || e.Website.Description == nil {
		t.Fatal("expected a website description")
	}
	if len(*e.Website.Description) != 4096 || !strings.HasSuffix(*e.Website.Description, "...") {
		t.Fatalf("expected a 4093-char description plus ellipsis, got length %d", len(*e.Website.Description))
	}
}
