package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreConfig selects the session repository backend.
type StoreConfig struct {
	// Driver is one of sqlite, mysql or memory
	Driver string `yaml:"driver"`

	// Path is the sqlite database file; relative paths resolve against the home directory
	Path string `yaml:"path"`

	// DSN is the mysql data source name; LABOURCHECK_MYSQL_DSN overrides it
	DSN string `yaml:"dsn"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	EnableCORS   bool          `yaml:"enable_cors"`
	Debug        bool          `yaml:"debug"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// LandingURL is where tracked follow-up links redirect after recording the conversion
	LandingURL string `yaml:"landing_url"`

	// LiveSessions bounds the number of in-flight conversations kept in memory
	LiveSessions int `yaml:"live_sessions"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EmailConfig configures report email delivery over SMTP.
type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	From     string `yaml:"from"`
}

// SMSConfig configures the HTTP SMS gateway.
type SMSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	GatewayURL string `yaml:"gateway_url"`
	From       string `yaml:"from"`
}

// S3Config locates the bucket for stored report documents.
type S3Config struct {
	Endpoint   string        `yaml:"endpoint"`
	Region     string        `yaml:"region"`
	Bucket     string        `yaml:"bucket"`
	Prefix     string        `yaml:"prefix"`
	Expiration time.Duration `yaml:"expiration"`
}

// DocumentsConfig configures PDF rendering and where PDFs are stored.
type DocumentsConfig struct {
	PDFEnabled bool `yaml:"pdf_enabled"`

	// Driver is local or s3
	Driver string `yaml:"driver"`

	LocalDir      string   `yaml:"local_dir"`
	PublicBaseURL string   `yaml:"public_base_url"`
	S3            S3Config `yaml:"s3"`
}

// TrackingConfig configures tracked follow-up links.
type TrackingConfig struct {
	BaseURL string        `yaml:"base_url"`
	TTL     time.Duration `yaml:"ttl"`
}

// DiscordConfig configures the ops channel notifier.
type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ChannelID string `yaml:"channel_id"`
}

// Config represents labourcheck configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory for the rotating file log; empty disables file logging
	LogDir string `yaml:"log_dir"`

	// CatalogPath points at a YAML question catalog; empty uses the built-in catalog
	CatalogPath string `yaml:"catalog_path"`

	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Email     EmailConfig     `yaml:"email"`
	SMS       SMSConfig       `yaml:"sms"`
	Documents DocumentsConfig `yaml:"documents"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Discord   DiscordConfig   `yaml:"discord"`

	// Secrets are never read from the YAML file
	Secrets Secrets `yaml:"-"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogDir:   "logs",
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "sessions.db",
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			EnableCORS:   true,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			LandingURL:   "https://example.com/book-a-review",
			LiveSessions: 1024,
		},
		Email: EmailConfig{
			SMTPPort: 587,
		},
		Documents: DocumentsConfig{
			Driver:        "local",
			LocalDir:      "documents",
			PublicBaseURL: "",
			S3: S3Config{
				Prefix:     "labourcheck",
				Expiration: 7 * 24 * time.Hour,
			},
		},
		Tracking: TrackingConfig{
			BaseURL: "http://127.0.0.1:8080",
			TTL:     30 * 24 * time.Hour,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys present in the file overwrite the defaults; absent keys keep them.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadConfigFromHome loads config.yaml and the .env secrets from home,
// then resolves relative paths against it.
func LoadConfigFromHome(home string) (*Config, error) {
	cfg, err := LoadConfig(ConfigPath(home))
	if err != nil {
		return nil, err
	}
	secrets, err := LoadSecrets(EnvPath(home))
	if err != nil {
		return nil, err
	}
	cfg.ApplySecrets(secrets)
	cfg.ResolvePaths(home)
	return cfg, nil
}

// ResolvePaths makes relative file locations absolute under home.
func (c *Config) ResolvePaths(home string) {
	c.LogDir = resolve(home, c.LogDir)
	c.CatalogPath = resolve(home, c.CatalogPath)
	c.Documents.LocalDir = resolve(home, c.Documents.LocalDir)
	if c.Store.Path != ":memory:" {
		c.Store.Path = resolve(home, c.Store.Path)
	}
}

func resolve(home, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(home, p)
}

// ApplySecrets attaches secrets and lets LABOURCHECK_MYSQL_DSN override store.dsn.
func (c *Config) ApplySecrets(s Secrets) {
	c.Secrets = s
	if s.MySQLDSN != "" {
		c.Store.DSN = s.MySQLDSN
	}
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(logLevel *string, storeDriver *string, storePath *string, host *string, port *int) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if storeDriver != nil {
		c.Store.Driver = *storeDriver
	}
	if storePath != nil {
		c.Store.Path = *storePath
	}
	if host != nil {
		c.Server.Host = *host
	}
	if port != nil {
		c.Server.Port = *port
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path cannot be empty for the sqlite driver")
		}
	case "mysql":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn (or LABOURCHECK_MYSQL_DSN) is required for the mysql driver")
		}
	default:
		return fmt.Errorf("invalid store.driver %q, must be one of: sqlite, mysql, memory", c.Store.Driver)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}
	if c.Server.LiveSessions < 0 {
		return fmt.Errorf("server.live_sessions must be >= 0, got %d", c.Server.LiveSessions)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must be >= 0")
	}
	if c.Server.LandingURL != "" {
		if err := checkURL("server.landing_url", c.Server.LandingURL); err != nil {
			return err
		}
	}

	if c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("email.smtp_host cannot be empty when email is enabled")
		}
		if c.Email.From == "" {
			return fmt.Errorf("email.from cannot be empty when email is enabled")
		}
		if c.Email.SMTPPort <= 0 || c.Email.SMTPPort > 65535 {
			return fmt.Errorf("email.smtp_port must be between 1 and 65535, got %d", c.Email.SMTPPort)
		}
	}

	if c.SMS.Enabled {
		if err := checkURL("sms.gateway_url", c.SMS.GatewayURL); err != nil {
			return err
		}
	}

	switch c.Documents.Driver {
	case "local":
		if c.Documents.PDFEnabled && c.Documents.LocalDir == "" {
			return fmt.Errorf("documents.local_dir cannot be empty for the local driver")
		}
	case "s3":
		if c.Documents.PDFEnabled {
			if c.Documents.S3.Bucket == "" || c.Documents.S3.Region == "" {
				return fmt.Errorf("documents.s3.bucket and documents.s3.region are required for the s3 driver")
			}
			if c.Secrets.S3Key == "" || c.Secrets.S3Secret == "" {
				return fmt.Errorf("LABOURCHECK_S3_KEY and LABOURCHECK_S3_SECRET are required for the s3 driver")
			}
		}
	default:
		return fmt.Errorf("invalid documents.driver %q, must be one of: local, s3", c.Documents.Driver)
	}
	if c.Documents.S3.Expiration < 0 {
		return fmt.Errorf("documents.s3.expiration must be >= 0, got %v", c.Documents.S3.Expiration)
	}

	if err := checkURL("tracking.base_url", c.Tracking.BaseURL); err != nil {
		return err
	}
	if c.Tracking.TTL < 0 {
		return fmt.Errorf("tracking.ttl must be >= 0, got %v", c.Tracking.TTL)
	}
	if s := c.Secrets.TrackingSecret; s != "" && len(s) < 16 {
		return fmt.Errorf("LABOURCHECK_TRACKING_SECRET must be at least 16 characters")
	}

	if c.Discord.Enabled {
		if c.Discord.ChannelID == "" {
			return fmt.Errorf("discord.channel_id cannot be empty when discord is enabled")
		}
		if c.Secrets.DiscordToken == "" {
			return fmt.Errorf("LABOURCHECK_DISCORD_TOKEN is required when discord is enabled")
		}
	}

	return nil
}

func checkURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, raw)
	}
	return nil
}
