package models

// EmbedType discriminates the Embed payload shape (§3, §4.8). YouTube
// and Spotify links get their own variants since both are rendered from
// an oEmbed response rather than a generic OpenGraph scrape.
type EmbedType string

const (
	EmbedCustom  EmbedType = "CUSTOM"
	EmbedWebsite EmbedType = "WEBSITE"
	EmbedImage   EmbedType = "IMAGE"
	EmbedVideo   EmbedType = "VIDEO"
	EmbedYouTube EmbedType = "YOUTUBE_VIDEO"
	EmbedSpotify EmbedType = "SPOTIFY"
)

// Embed is a rendered preview attached to a message (§3, §4.8). Exactly
// one of Website/OEmbed/Custom/Image/Video is populated, selected by
// Type. Custom embeds are caller-supplied rather than derived from URL
// scraping and carry no URL of their own.
type Embed struct {
	Type    EmbedType     `json:"type"`
	URL     string        `json:"url"`
	Website *WebsiteEmbed `json:"website,omitempty"`
	OEmbed  *OEmbed       `json:"oembed,omitempty"`
	Custom  *CustomEmbed  `json:"custom,omitempty"`
	Image   *MediaEmbed   `json:"image,omitempty"`
	Video   *MediaEmbed   `json:"video,omitempty"`
}

// WebsiteEmbed holds OpenGraph/Twitter-card/bare-HTML metadata scraped
// from a linked page (§4.8).
type WebsiteEmbed struct {
	Title        *string     `json:"title,omitempty"`
	Description  *string     `json:"description,omitempty"`
	Thumbnail    *MediaEmbed `json:"thumbnail,omitempty"`
	Author       *string     `json:"author,omitempty"`
	Colour       *string     `json:"colour,omitempty"`
	ProviderName *string     `json:"provider_name,omitempty"`
	ProviderURL  *string     `json:"provider_url,omitempty"`
}

// OEmbed carries the subset of the oEmbed protocol
// (https://oembed.com) response fields used for YouTube and Spotify
// previews (§4.8).
type OEmbed struct {
	Title        *string `json:"title,omitempty"`
	AuthorName   *string `json:"author_name,omitempty"`
	ProviderName *string `json:"provider_name,omitempty"`
	ProviderURL  *string `json:"provider_url,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	HTML         *string `json:"html,omitempty"`
}

// CustomEmbed is a caller-supplied embed attached directly to a message
// on create/edit rather than discovered from its content (§4.8); up to
// 10 may be attached to one message.
type CustomEmbed struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Colour      *string     `json:"colour,omitempty"`
	Thumbnail   *MediaEmbed `json:"thumbnail,omitempty"`
}

// MediaEmbed describes a directly-linked image or video asset (§4.8).
type MediaEmbed struct {
	URL    string `json:"url"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}
