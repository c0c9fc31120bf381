package models

// Message is a channel message with optional reference, attachments,
// embeds and reactions (§3). At least one of {Content, Attachments,
// Embeds} must be non-empty after any create or edit (invariant 4).
type Message struct {
	ID          uint64       `json:"id"`
	ChannelID   uint64       `json:"channel_id"`
	AuthorID    *uint64      `json:"author_id"`
	Content     *string      `json:"content,omitempty"`
	Reference   *uint64      `json:"reference,omitempty"`
	Attachments []Attachment `json:"attachments"`
	Embeds      []Embed      `json:"embeds"`
	Reactions   []Reaction   `json:"reactions"`
}

// NonEmpty reports whether m satisfies invariant 4.
func (m Message) NonEmpty() bool {
	hasContent := m.Content != nil && *m.Content != ""
	return hasContent || len(m.Attachments) > 0 || len(m.Embeds) > 0
}

// Attachment links an uploaded file to a message (§3).
type Attachment struct {
	MessageID   uint64 `json:"-"`
	FileID      uint64 `json:"id"`
	Description *string `json:"description,omitempty"`
	Spoiler     bool    `json:"spoiler"`
}

// Reaction is a unique (message, emoji, user-set) tuple (§3). A reaction
// whose user set becomes empty must be deleted (invariant 5).
type Reaction struct {
	MessageID uint64   `json:"-"`
	EmojiRef  string   `json:"emoji"` // either a custom emoji id or an allow-listed unicode sequence
	UserIDs   []uint64 `json:"user_ids"`
}
