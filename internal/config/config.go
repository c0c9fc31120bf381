// Package config loads the single instance configuration file shared by
// the oprish, pandemonium and effis binaries, following the nested
// yaml-tagged struct layout the teacher uses for its connector config.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eludris-go/eludris/internal/models"
)

// Config is the root instance configuration (§6.5).
type Config struct {
	InstanceName string `yaml:"instance_name"`
	Description  string `yaml:"description"`
	Secret       string `yaml:"secret"` // HMAC key signing session tokens (§4.3)
	WorkerID     uint8  `yaml:"worker_id"`

	Oprish      OprishConfig      `yaml:"oprish"`
	Pandemonium PandemoniumConfig `yaml:"pandemonium"`
	Effis       EffisConfig       `yaml:"effis"`
	Email       *EmailConfig      `yaml:"email"`
	Database    DatabaseConfig    `yaml:"database"`
	Cache       CacheConfig       `yaml:"cache"`
	Log         LogConfig         `yaml:"log"`
}

// OprishConfig configures the REST API.
type OprishConfig struct {
	URL          string                      `yaml:"url"`
	MessageLimit int                         `yaml:"message_limit"`
	BioLimit     int                         `yaml:"bio_limit"`
	RateLimits   map[string]RateLimitSetting `yaml:"rate_limits"`
}

// PandemoniumConfig configures the gateway.
type PandemoniumConfig struct {
	URL            string           `yaml:"url"`
	RateLimit      RateLimitSetting `yaml:"rate_limit"`
	HeartbeatMs    int64            `yaml:"heartbeat_interval_ms"`
	DeadConnSlack  time.Duration    `yaml:"dead_connection_slack"`
}

// EffisConfig configures the CDN/file service.
type EffisConfig struct {
	URL                string                      `yaml:"url"`
	FileSize           int64                       `yaml:"file_size"`
	AttachmentFileSize int64                       `yaml:"attachment_file_size"`
	ProxyFileSize      int64                       `yaml:"proxy_file_size"`
	Root               string                      `yaml:"root"`
	RateLimits         map[string]RateLimitSetting `yaml:"rate_limits"`
	ResizableSizes     []int                       `yaml:"resizable_sizes"`
}

// RateLimitSetting is {limit, reset_after[, file_size_limit]} from §4.2/§6.5.
type RateLimitSetting struct {
	Limit         int   `yaml:"limit"`
	ResetAfter    int64 `yaml:"reset_after"`
	FileSizeLimit int64 `yaml:"file_size_limit,omitempty"`
}

// EmailConfig configures the outbound SMTP relay. A nil *EmailConfig means
// email is disabled instance-wide and routes that need it return
// apierror.Misdirectedf.
type EmailConfig struct {
	Relay         string           `yaml:"relay"`
	Name          string           `yaml:"name"`
	Address       string           `yaml:"address"`
	Credentials   *EmailCredential `yaml:"credentials"`
	Subjects      EmailSubjects    `yaml:"subjects"`
}

// EmailCredential holds SMTP auth, present only for relays that require it.
type EmailCredential struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// EmailSubjects holds the per-preset subject line templates.
type EmailSubjects struct {
	Verify        string `yaml:"verify"`
	PasswordReset string `yaml:"password_reset"`
}

// DatabaseConfig configures the entity store connection.
type DatabaseConfig struct {
	Dialect string `yaml:"dialect"` // "postgres" or "sqlite3"
	DSN     string `yaml:"dsn"`
}

// CacheConfig configures the shared cache backing rate limits and presence.
type CacheConfig struct {
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Pretty bool   `yaml:"pretty"`
}

// Default mirrors the teacher's DefaultXConfig() helpers (e.g.
// DefaultLinkPreviewConfig in pkg/connector/config.go) — sane zero-config
// defaults so the instance is runnable without a config file.
func Default() *Config {
	return &Config{
		InstanceName: "eludris",
		Description:  "The cutest place on the internet",
		Oprish: OprishConfig{
			URL:          "https://example.com",
			MessageLimit: 2048,
			BioLimit:     4096,
			RateLimits: map[string]RateLimitSetting{
				"info":              {Limit: 2, ResetAfter: 5},
				"create_session":    {Limit: 5, ResetAfter: 60},
				"create_message":    {Limit: 10, ResetAfter: 5},
				"get_sphere":        {Limit: 5, ResetAfter: 5},
			},
		},
		Pandemonium: PandemoniumConfig{
			URL:           "wss://example.com/ws",
			RateLimit:     RateLimitSetting{Limit: 5, ResetAfter: 10},
			HeartbeatMs:   45000,
			DeadConnSlack: 3 * time.Second,
		},
		Effis: EffisConfig{
			URL:                "https://cdn.example.com",
			FileSize:           20 * 1024 * 1024,
			AttachmentFileSize: 100 * 1024 * 1024,
			ProxyFileSize:      20 * 1024 * 1024,
			Root:               "./files",
			ResizableSizes:     []int{256},
			RateLimits: map[string]RateLimitSetting{
				"assets":      {Limit: 5, ResetAfter: 10, FileSizeLimit: 30 * 1024 * 1024},
				"attachments": {Limit: 20, ResetAfter: 60, FileSizeLimit: 500 * 1024 * 1024},
				"fetch_file":  {Limit: 10, ResetAfter: 5},
				"proxy_file":  {Limit: 5, ResetAfter: 10},
			},
		},
		Database: DatabaseConfig{Dialect: "sqlite3", DSN: "file:eludris.db?_foreign_keys=on"},
		Cache:    CacheConfig{CleanupInterval: time.Minute},
		Log:      LogConfig{Level: "info", Pretty: true},
	}
}

// Load reads and merges a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// RateLimit looks up a named Oprish bucket, falling back to a permissive
// default so an unconfigured route never panics.
func (c *Config) RateLimit(bucket string) RateLimitSetting {
	if rl, ok := c.Oprish.RateLimits[bucket]; ok {
		return rl
	}
	return RateLimitSetting{Limit: 10, ResetAfter: 10}
}

// EffisRateLimit looks up a named Effis bucket.
func (c *Config) EffisRateLimit(bucket string) RateLimitSetting {
	if rl, ok := c.Effis.RateLimits[bucket]; ok {
		return rl
	}
	return RateLimitSetting{Limit: 10, ResetAfter: 10}
}

// InstanceInfo builds the GET / and gateway HELLO body (§6.1, §6.3).
// Rate limit buckets are only populated when withRateLimits is set, per
// the `?rate_limits=true` query flag.
func (c *Config) InstanceInfo(withRateLimits bool) models.InstanceInfo {
	info := models.InstanceInfo{
		InstanceName: c.InstanceName,
		Oprish: models.OprishInfo{
			URL:          c.Oprish.URL,
			MessageLimit: c.Oprish.MessageLimit,
			BioLimit:     c.Oprish.BioLimit,
		},
		Pandemonium: models.PandemoniumInfo{
			URL: c.Pandemonium.URL,
			RateLimit: models.RateLimitInfo{
				Limit: int64(c.Pandemonium.RateLimit.Limit), ResetAfter: c.Pandemonium.RateLimit.ResetAfter,
			},
		},
		Effis: models.EffisInfo{
			URL:                c.Effis.URL,
			FileSize:           c.Effis.FileSize,
			AttachmentFileSize: c.Effis.AttachmentFileSize,
			ProxyFileSize:      c.Effis.ProxyFileSize,
		},
	}
	if c.Description != "" {
		info.Description = &c.Description
	}
	if c.Email != nil {
		info.Email = &models.EmailInfo{
			Relay:   c.Email.Relay,
			Name:    c.Email.Name,
			Address: c.Email.Address,
			Subjects: models.EmailSubjectInfo{
				Verify: c.Email.Subjects.Verify,
				Reset:  c.Email.Subjects.PasswordReset,
			},
		}
	}
	if !withRateLimits {
		return info
	}
	info.Oprish.RateLimits = map[string]models.RateLimitInfo{}
	for name, rl := range c.Oprish.RateLimits {
		info.Oprish.RateLimits[name] = models.RateLimitInfo{Limit: int64(rl.Limit), ResetAfter: rl.ResetAfter}
	}
	info.Effis.RateLimits = map[string]models.FileRateLimitInfo{}
	for name, rl := range c.Effis.RateLimits {
		info.Effis.RateLimits[name] = models.FileRateLimitInfo{
			RateLimitInfo: models.RateLimitInfo{Limit: int64(rl.Limit), ResetAfter: rl.ResetAfter},
			FileSizeLimit: rl.FileSizeLimit,
		}
	}
	return info
}
