package models

// ChannelType distinguishes the SphereChannel variant (§3).
type ChannelType string

const (
	ChannelText  ChannelType = "TEXT"
	ChannelVoice ChannelType = "VOICE"
)

// Channel is a text or voice container for messages within a category
// (§3, GLOSSARY). Topic only applies to Text channels.
type Channel struct {
	ID         uint64      `json:"id"`
	SphereID   uint64      `json:"sphere_id"`
	Name       string      `json:"name"`
	Type       ChannelType `json:"type"`
	Topic      *string     `json:"topic,omitempty"`
	CategoryID uint64      `json:"category_id"`
	Position   uint32      `json:"position"`
	IsDeleted  bool        `json:"-"`
}
