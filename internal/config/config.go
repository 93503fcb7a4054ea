// Package config loads moneybot.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tablemoney/moneybot/internal/categories"
)

// FileName is the default config file name.
const FileName = "moneybot.yaml"

// Config represents the top-level moneybot.yaml configuration.
type Config struct {
	Telegram   TelegramConfig        `yaml:"telegram"`
	Storage    StorageConfig         `yaml:"storage"`
	Sessions   SessionsConfig        `yaml:"sessions"`
	Sheets     SheetsConfig          `yaml:"sheets"`
	Backup     BackupConfig          `yaml:"backup"`
	Log        LogConfig             `yaml:"log"`
	Categories []categories.Category `yaml:"categories,omitempty"`
}

// TelegramConfig configures the bot transport.
type TelegramConfig struct {
	Token        string        `yaml:"token,omitempty"`
	AllowedUsers []int64       `yaml:"allowed_users,omitempty"`
	PollTimeout  int           `yaml:"poll_timeout"` // seconds
	Webhook      WebhookConfig `yaml:"webhook"`
	Proxy        ProxyConfig   `yaml:"proxy"`
}

// WebhookConfig switches the bot from long polling to a webhook when URL is set.
type WebhookConfig struct {
	URL    string `yaml:"url,omitempty"`
	Listen string `yaml:"listen,omitempty"`
}

// ProxyConfig is an optional SOCKS5 proxy for the bot API.
type ProxyConfig struct {
	Server string `yaml:"server,omitempty"` // host:port
	User   string `yaml:"user,omitempty"`
	Pass   string `yaml:"pass,omitempty"`
}

// StorageConfig locates the partition files.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// SessionsConfig controls selection state expiry. Zero TTL never expires.
type SessionsConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// SheetsConfig controls the remote spreadsheet mirror.
type SheetsConfig struct {
	Enabled           bool          `yaml:"enabled"`
	SpreadsheetID     string        `yaml:"spreadsheet_id,omitempty"`
	CredentialsFile   string        `yaml:"credentials_file,omitempty"`
	CredentialsBase64 string        `yaml:"credentials_base64,omitempty"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	QueueSize         int           `yaml:"queue_size"`
}

// BackupConfig names the Cloud Storage destination of backups.
type BackupConfig struct {
	Bucket  string        `yaml:"bucket,omitempty"`
	Prefix  string        `yaml:"prefix,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Load reads a moneybot.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new install.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout: 60,
			Webhook:     WebhookConfig{Listen: ":8080"},
		},
		Storage:  StorageConfig{DataDir: "data"},
		Sessions: SessionsConfig{TTL: 24 * time.Hour},
		Sheets: SheetsConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 4,
			QueueSize:  256,
		},
		Backup: BackupConfig{Prefix: "moneybot", Timeout: 2 * time.Minute},
		Log:    LogConfig{Level: "info", Console: true},
	}
}

// LoadDotEnv loads variables from path into the process environment without
// overriding variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("BOT_TOKEN"); ok && v != "" {
		c.Telegram.Token = v
	}
	if v, ok := lookup("ALLOWED_USERS"); ok && strings.TrimSpace(v) != "" {
		ids, err := ParseUserIDs(v)
		if err != nil {
			return fmt.Errorf("ALLOWED_USERS: %w", err)
		}
		c.Telegram.AllowedUsers = ids
	}
	if v, ok := lookup("SPREADSHEET_ID"); ok && v != "" {
		c.Sheets.SpreadsheetID = v
		c.Sheets.Enabled = true
	}
	if v, ok := lookup("GOOGLE_CREDENTIALS_BASE64"); ok && v != "" {
		c.Sheets.CredentialsBase64 = v
	}
	if v, ok := lookup("GOOGLE_CREDENTIALS_FILE"); ok && v != "" {
		c.Sheets.CredentialsFile = v
	}
	if v, ok := lookup("GCS_BUCKET"); ok && v != "" {
		c.Backup.Bucket = v
	}
	if v, ok := lookup("DATA_DIR"); ok && v != "" {
		c.Storage.DataDir = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

// ParseUserIDs parses a comma separated list of numeric Telegram user ids.
func ParseUserIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks the settings needed to serve the bot.
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.DataDir == "" {
		errs = append(errs, errors.New("storage.data_dir is required"))
	}
	if c.Telegram.PollTimeout < 0 {
		errs = append(errs, errors.New("telegram.poll_timeout must not be negative"))
	}
	if c.Sessions.TTL < 0 {
		errs = append(errs, errors.New("sessions.ttl must not be negative"))
	}
	if c.Sheets.Enabled {
		if c.Sheets.SpreadsheetID == "" {
			errs = append(errs, errors.New("sheets.spreadsheet_id is required when sheets are enabled"))
		}
		if c.Sheets.CredentialsFile == "" && c.Sheets.CredentialsBase64 == "" {
			errs = append(errs, errors.New("sheets credentials are required when sheets are enabled"))
		}
	}
	if len(c.Categories) > 0 {
		if _, err := categories.NewCatalog(c.Categories); err != nil {
			errs = append(errs, fmt.Errorf("categories: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ValidateServe additionally requires a bot token.
func (c *Config) ValidateServe() error {
	if c.Telegram.Token == "" {
		return errors.Join(errors.New("telegram token is required (set BOT_TOKEN)"), c.Validate())
	}
	return c.Validate()
}

// Catalog returns the configured categories, or the built-in ones.
func (c *Config) Catalog() (*categories.Catalog, error) {
	if len(c.Categories) == 0 {
		return categories.NewCatalog(categories.Default())
	}
	return categories.NewCatalog(c.Categories)
}
