package models

// InstanceInfo is the body of GET / and is reused verbatim inside the
// gateway HELLO payload (§6.3, §12).
type InstanceInfo struct {
	InstanceName string            `json:"instance_name"`
	Description  *string           `json:"description,omitempty"`
	Oprish       OprishInfo        `json:"oprish"`
	Pandemonium  PandemoniumInfo   `json:"pandemonium"`
	Effis        EffisInfo         `json:"effis"`
	Email        *EmailInfo        `json:"email,omitempty"`
}

type OprishInfo struct {
	URL          string                    `json:"url"`
	MessageLimit int                       `json:"message_limit"`
	BioLimit     int                       `json:"bio_limit"`
	RateLimits   map[string]RateLimitInfo  `json:"rate_limits"`
}

type PandemoniumInfo struct {
	URL       string        `json:"url"`
	RateLimit RateLimitInfo `json:"rate_limit"`
}

type EffisInfo struct {
	URL                string                    `json:"url"`
	FileSize           int64                     `json:"file_size"`
	AttachmentFileSize int64                     `json:"attachment_file_size"`
	ProxyFileSize      int64                     `json:"proxy_file_size"`
	RateLimits         map[string]FileRateLimitInfo `json:"rate_limits"`
}

type RateLimitInfo struct {
	Limit     int64 `json:"limit"`
	ResetAfter int64 `json:"reset_after"`
}

type FileRateLimitInfo struct {
	RateLimitInfo
	FileSizeLimit int64 `json:"file_size_limit"`
}

type EmailInfo struct {
	Relay      string              `json:"relay"`
	Name       string              `json:"name"`
	Address    string              `json:"address"`
	Credentials *EmailCredentialInfo `json:"credentials,omitempty"`
	Subjects   EmailSubjectInfo    `json:"subjects"`
}

type EmailCredentialInfo struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type EmailSubjectInfo struct {
	Verify string `json:"verify"`
	Reset  string `json:"reset"`
	Delete string `json:"delete"`
}
