// Package embeds generates rendered link previews for URLs found in
// message content (§4.8), adapted from the teacher's LinkPreviewer
// (pkg/connector/linkpreview.go): same goquery+go-opengraph fallback
// chain and cache-first fetch, generalized from Matrix-event payloads
// to Eludris's Embed model and backed by the shared cache.Cache instead
// of a private package-level map.
package embeds

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	_ "golang.org/x/image/webp"

	"github.com/eludris-go/eludris/internal/cache"
	"github.com/eludris-go/eludris/internal/models"
)

// Config tunes fetch limits, mirroring DefaultLinkPreviewConfig's shape.
type Config struct {
	MaxURLs      int
	FetchTimeout time.Duration
	MaxPageBytes int64
	CacheTTL     time.Duration
}

// DefaultConfig matches §4.8's stated defaults.
func DefaultConfig() Config {
	return Config{
		MaxURLs:      5,
		FetchTimeout: 10 * time.Second,
		MaxPageBytes: 10 * 1024 * 1024,
		CacheTTL:     2 * time.Hour, // matches §4.8's 7200s embed cache TTL
	}
}

// Generator builds Embeds for URLs found in message content.
type Generator struct {
	cfg        Config
	cache      cache.Cache
	httpClient *http.Client
}

// New builds a Generator over the shared cache.
func New(cfg Config, c cache.Cache) *Generator {
	return &Generator{
		cfg:   cfg,
		cache: c,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

var urlRegex = regexp.MustCompile(`https?://[^\s<>\[\]()'"]+[^\s<>\[\]()'",.:;!?]`)

// ExtractURLs pulls up to maxURLs unique, allow-listed URLs out of text.
func ExtractURLs(text string, maxURLs int) []string {
	if maxURLs <= 0 {
		return nil
	}
	matches := urlRegex.FindAllString(text, -1)
	seen := make(map[string]bool)
	var urls []string
	for _, match := range matches {
		cleaned := strings.TrimRight(match, ".,;:!?")
		if seen[cleaned] || !isAllowedURL(cleaned) {
			continue
		}
		seen[cleaned] = true
		urls = append(urls, cleaned)
		if len(urls) >= maxURLs {
			break
		}
	}
	return urls
}

func isAllowedURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return false
	}
	if strings.HasPrefix(host, "192.168.") || strings.HasPrefix(host, "10.") || strings.HasPrefix(host, "172.") {
		return false
	}
	return true
}

// GenerateAll resolves embeds for every URL found in content, in
// parallel, skipping any URL that fails to preview. This backs the
// detached populate_embeds task (§4.8).
func (g *Generator) GenerateAll(ctx context.Context, content string) []models.Embed {
	urls := ExtractURLs(content, g.cfg.MaxURLs)
	if len(urls) == 0 {
		return nil
	}
	results := make([]*models.Embed, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			if e, err := g.Generate(ctx, u); err == nil {
				results[idx] = e
			}
		}(i, u)
	}
	wg.Wait()
	var out []models.Embed
	for _, e := range results {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// Generate fetches or reuses a cached embed for a single URL. YouTube
// and Spotify links are tried through oEmbed first; otherwise the URL is
// fetched and classified by its Content-Type: direct image/video links
// become media embeds without HTML parsing, HTML pages are scraped into
// a WEBSITE embed, and any other content type is an error.
func (g *Generator) Generate(ctx context.Context, rawURL string) (*models.Embed, error) {
	key := "embed:" + rawURL
	if cached, ok, err := g.cache.Get(ctx, key); err == nil && ok {
		var e models.Embed
		if json.Unmarshal(cached, &e) == nil {
			return &e, nil
		}
	}

	e, err := g.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(e); err == nil {
		_ = g.cache.Set(ctx, key, data, g.cfg.CacheTTL)
	}
	return e, nil
}

// oEmbedProviders maps a recognized hostname to the oEmbed endpoint and
// embed variant used for it (§4.8): YouTube and Spotify links are
// special-cased ahead of the generic OpenGraph scrape since both
// expose a proper oEmbed API.
var oEmbedProviders = []struct {
	hosts    []string
	endpoint string
	typ      models.EmbedType
}{
	{[]string{"youtube.com", "www.youtube.com", "youtu.be"}, "https://www.youtube.com/oembed?format=json&url=%s", models.EmbedYouTube},
	{[]string{"open.spotify.com"}, "https://open.spotify.com/oembed?url=%s", models.EmbedSpotify},
}

func (g *Generator) fetch(ctx context.Context, rawURL string) (*models.Embed, error) {
	if provider, typ, ok := matchOEmbedProvider(rawURL); ok {
		if e, err := g.fetchOEmbed(ctx, rawURL, provider, typ); err == nil {
			return e, nil
		}
		// fall through to the generic scrape if the oEmbed call fails
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; EludrisBot/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeds: HTTP %d for %s", resp.StatusCode, rawURL)
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return g.mediaEmbed(resp, rawURL, models.EmbedImage)
	case strings.HasPrefix(contentType, "video/"):
		return &models.Embed{Type: models.EmbedVideo, URL: rawURL, Video: &models.MediaEmbed{URL: rawURL}}, nil
	case !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml"):
		return nil, fmt.Errorf("embeds: unsupported content type %q", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, g.cfg.MaxPageBytes))
	if err != nil {
		return nil, err
	}

	og := opengraph.NewOpenGraph()
	_ = og.ProcessHTML(strings.NewReader(string(body)))

	var title, description string = og.Title, og.Description
	if title == "" || description == "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body))); err == nil {
			if title == "" {
				title = extractTitle(doc)
			}
			if description == "" {
				description = extractDescription(doc)
			}
		}
	}

	// §4.8 caps the scraped description at 4093 chars plus an ellipsis
	// so oversized page descriptions never blow out the embed payload.
	if len(description) > 4093 {
		description = description[:4093] + "..."
	}

	site := &models.WebsiteEmbed{}
	if title != "" {
		site.Title = &title
	}
	if description != "" {
		site.Description = &description
	}
	if og.SiteName != "" {
		name := og.SiteName
		site.ProviderName = &name
	}
	if len(og.Images) > 0 && og.Images[0].URL != "" {
		site.Thumbnail = &models.MediaEmbed{URL: resolveURL(rawURL, og.Images[0].URL)}
	}

	return &models.Embed{Type: models.EmbedWebsite, URL: rawURL, Website: site}, nil
}

func matchOEmbedProvider(rawURL string) (string, models.EmbedType, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, p := range oEmbedProviders {
		for _, h := range p.hosts {
			if host == h {
				return p.endpoint, p.typ, true
			}
		}
	}
	return "", "", false
}

// fetchOEmbed calls a provider's oEmbed endpoint and maps its response
// onto models.OEmbed (§4.8).
func (g *Generator) fetchOEmbed(ctx context.Context, rawURL, endpointTmpl string, typ models.EmbedType) (*models.Embed, error) {
	endpoint := fmt.Sprintf(endpointTmpl, url.QueryEscape(rawURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeds: oEmbed HTTP %d for %s", resp.StatusCode, rawURL)
	}

	var raw struct {
		Title        string `json:"title"`
		AuthorName   string `json:"author_name"`
		ProviderName string `json:"provider_name"`
		ProviderURL  string `json:"provider_url"`
		ThumbnailURL string `json:"thumbnail_url"`
		HTML         string `json:"html"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, g.cfg.MaxPageBytes)).Decode(&raw); err != nil {
		return nil, err
	}

	o := &models.OEmbed{}
	if raw.Title != "" {
		o.Title = &raw.Title
	}
	if raw.AuthorName != "" {
		o.AuthorName = &raw.AuthorName
	}
	if raw.ProviderName != "" {
		o.ProviderName = &raw.ProviderName
	}
	if raw.ProviderURL != "" {
		o.ProviderURL = &raw.ProviderURL
	}
	if raw.ThumbnailURL != "" {
		o.ThumbnailURL = &raw.ThumbnailURL
	}
	if raw.HTML != "" {
		o.HTML = &raw.HTML
	}
	return &models.Embed{Type: typ, URL: rawURL, OEmbed: o}, nil
}

func (g *Generator) mediaEmbed(resp *http.Response, rawURL string, typ models.EmbedType) (*models.Embed, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, err
	}
	media := &models.MediaEmbed{URL: rawURL}
	if cfg, _, err := image.DecodeConfig(strings.NewReader(string(data))); err == nil {
		w, h := cfg.Width, cfg.Height
		media.Width, media.Height = &w, &h
	}
	e := &models.Embed{Type: typ, URL: rawURL}
	if typ == models.EmbedImage {
		e.Image = media
	} else {
		e.Video = media
	}
	return e, nil
}

func resolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func extractTitle(doc *goquery.Document) string {
	if title := doc.Find("title").First().Text(); title != "" {
		return strings.TrimSpace(title)
	}
	if h1 := doc.Find("h1").First().Text(); h1 != "" {
		return strings.TrimSpace(h1)
	}
	return ""
}

func extractDescription(doc *goquery.Document) string {
	if desc, exists := doc.Find("meta[name='description']").First().Attr("content"); exists && desc != "" {
		return strings.TrimSpace(desc)
	}
	if p := doc.Find("p").First().Text(); p != "" {
		return strings.TrimSpace(p)
	}
	return ""
}
