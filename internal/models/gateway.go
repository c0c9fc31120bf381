package models

// Op names the gateway wire envelope's discriminator (§6.3). Payloads
// are typed Go structs rather than a Rust-style tagged enum; the
// gateway package marshals {op, d} pairs directly.
type Op string

const (
	OpPing    Op = "PING"
	OpPong    Op = "PONG"
	OpRateLimit Op = "RATE_LIMIT"
	OpHello   Op = "HELLO"
	OpAuthenticate Op = "AUTHENTICATE"
	OpAuthenticated Op = "AUTHENTICATED"

	OpMessageCreate Op = "MESSAGE_CREATE"
	OpMessageUpdate Op = "MESSAGE_UPDATE"
	OpMessageDelete Op = "MESSAGE_DELETE"
	OpMessageReactionCreate Op = "MESSAGE_REACTION_CREATE"
	OpMessageReactionDelete Op = "MESSAGE_REACTION_DELETE"
	OpMessageReactionClear  Op = "MESSAGE_REACTION_CLEAR"
	OpMessageEmbedPopulate  Op = "MESSAGE_EMBED_POPULATE"

	OpUserUpdate     Op = "USER_UPDATE"
	OpPresenceUpdate Op = "PRESENCE_UPDATE"

	OpSphereMemberJoin  Op = "SPHERE_MEMBER_JOIN"
	OpSphereMemberLeave Op = "SPHERE_MEMBER_LEAVE"
	OpSphereUpdate      Op = "SPHERE_UPDATE"

	OpSphereChannelCreate Op = "SPHERE_CHANNEL_CREATE"
	OpSphereChannelUpdate Op = "SPHERE_CHANNEL_UPDATE"
	OpSphereChannelDelete Op = "SPHERE_CHANNEL_DELETE"

	OpCategoryCreate Op = "CATEGORY_CREATE"
	OpCategoryEdit   Op = "CATEGORY_EDIT"
	OpCategoryDelete Op = "CATEGORY_DELETE"

	OpEmojiCreate Op = "EMOJI_CREATE"
	OpEmojiUpdate Op = "EMOJI_UPDATE"
	OpEmojiDelete Op = "EMOJI_DELETE"
)

// Envelope is the gateway's text-JSON frame shape: {"op": ..., "d": ...}.
// D is left untyped at this layer; the gateway package marshals a
// concrete payload into it per Op before serializing the frame.
type Envelope struct {
	Op Op          `json:"op"`
	D  interface{} `json:"d,omitempty"`
}

// HelloPayload is the first frame sent to every new connection.
type HelloPayload struct {
	HeartbeatInterval int64          `json:"heartbeat_interval"`
	InstanceInfo      InstanceInfo   `json:"instance_info"`
	RateLimit         RateLimitInfo  `json:"rate_limit"`
}

// AuthenticatePayload is the client->server AUTHENTICATE(token) frame.
type AuthenticatePayload struct {
	Token string `json:"token"`
}

// AuthenticatedPayload confirms a session and hands back its initial view.
type AuthenticatedPayload struct {
	User    User     `json:"user"`
	Spheres []Sphere `json:"spheres"`
}

// RateLimitPayload tells a misbehaving client how long to back off.
type RateLimitPayload struct {
	WaitMs int64 `json:"wait"`
}

// MessageUpdatePayload carries a partial edit, not the full message.
type MessageUpdatePayload struct {
	ChannelID uint64      `json:"channel_id"`
	MessageID uint64      `json:"message_id"`
	Data      interface{} `json:"data"`
}

// MessageDeletePayload identifies a removed message.
type MessageDeletePayload struct {
	ChannelID uint64 `json:"channel_id"`
	MessageID uint64 `json:"message_id"`
}

// MessageReactionCreatePayload announces a reaction addition.
type MessageReactionCreatePayload struct {
	ChannelID uint64 `json:"channel_id"`
	MessageID uint64 `json:"message_id"`
	UserID    uint64 `json:"user_id"`
	Emoji     string `json:"emoji"`
}

// MessageReactionDeletePayload announces a single reactor's removal.
type MessageReactionDeletePayload struct {
	ChannelID uint64 `json:"channel_id"`
	MessageID uint64 `json:"message_id"`
	UserID    uint64 `json:"user_id"`
	Emoji     string `json:"emoji"`
}

// MessageReactionClearPayload announces every reaction on a message
// being removed at once.
type MessageReactionClearPayload struct {
	ChannelID uint64 `json:"channel_id"`
	MessageID uint64 `json:"message_id"`
}

// MessageEmbedPopulatePayload delivers embeds computed after the
// message was already broadcast (§4.8's detached populate_embeds task).
type MessageEmbedPopulatePayload struct {
	ChannelID uint64  `json:"channel_id"`
	MessageID uint64  `json:"message_id"`
	Embeds    []Embed `json:"embeds"`
}

// PresenceUpdatePayload announces a user's status transition.
type PresenceUpdatePayload struct {
	UserID uint64 `json:"user_id"`
	Status Status `json:"status"`
}

// SphereMemberJoinPayload announces a new member.
type SphereMemberJoinPayload struct {
	User     User   `json:"user"`
	SphereID uint64 `json:"sphere_id"`
}

// SphereMemberLeavePayload announces a departing member.
type SphereMemberLeavePayload struct {
	UserID   uint64 `json:"user_id"`
	SphereID uint64 `json:"sphere_id"`
}

// SphereUpdatePayload carries a partial sphere edit.
type SphereUpdatePayload struct {
	Data     interface{} `json:"data"`
	SphereID uint64      `json:"sphere_id"`
}

// CategoryDeletePayload and friends identify sphere-scoped child
// entities by (sphere, entity) id pairs.
type CategoryDeletePayload struct {
	SphereID   uint64 `json:"sphere_id"`
	CategoryID uint64 `json:"category_id"`
}

type SphereChannelDeletePayload struct {
	SphereID  uint64 `json:"sphere_id"`
	ChannelID uint64 `json:"channel_id"`
}

type EmojiDeletePayload struct {
	SphereID uint64 `json:"sphere_id"`
	EmojiID  uint64 `json:"emoji_id"`
}
