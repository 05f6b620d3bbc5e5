// Package config handles user configuration for typewise.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"typewise/history"
)

// Config holds all typewise configuration.
type Config struct {
	General General `toml:"general"`
	Backend Backend `toml:"backend"`
	Auth    Auth    `toml:"auth"`
	LLM     LLM     `toml:"llm"`
	Layout  Layout  `toml:"layout"`
	Fetcher Fetcher `toml:"fetcher"`
	History History `toml:"history"`
	Log     Log     `toml:"log"`
}

// General controls the correction workflow.
type General struct {
	Enabled         bool   `toml:"enabled"`
	Language        string `toml:"language"`
	Mode            string `toml:"mode"`
	PrivacyEnhanced bool   `toml:"privacy_enhanced"` // don't send the page hostname
	MaxTextLength   int    `toml:"max_text_length"`  // in characters
}

// Backend selects where corrections come from.
type Backend struct {
	Provider       string `toml:"provider"` // "http", "llm" or "local"
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the request timeout.
func (b Backend) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Auth stores the backend session.
type Auth struct {
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	TokenType    string `toml:"token_type"`
	ExpiresAt    int64  `toml:"expires_at"` // Unix milliseconds
	UserEmail    string `toml:"user_email"`
}

// Expired reports whether the access token has passed its expiry.
func (a Auth) Expired(now time.Time) bool {
	return a.ExpiresAt > 0 && now.UnixMilli() >= a.ExpiresAt
}

// LLM configures the language model provider.
type LLM struct {
	Preferred string `toml:"preferred"` // "claude-api", "openai", "claude-code" or empty for auto
	Model     string `toml:"model"`
}

// Layout configures the text layout used for anchoring the panel.
type Layout struct {
	Width int `toml:"width"`
}

// Fetcher configures how pages are loaded.
type Fetcher struct {
	UserAgent      string `toml:"user_agent"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ChromePath     string `toml:"chrome_path"`
	UseBrowser     bool   `toml:"use_browser"`
}

// Timeout returns the fetch timeout.
func (f Fetcher) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// History configures the correction history store.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // empty means history.db in the config directory
	Limit   int    `toml:"limit"`
}

// Log configures diagnostics.
type Log struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// SlogLevel parses Level, defaulting to warn.
func (l Log) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelWarn
	}
	return level
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: General{
			Enabled:       true,
			Language:      "fr",
			Mode:          "MODE_ORTHO",
			MaxTextLength: 3000,
		},
		Backend: Backend{
			Provider:       "http",
			BaseURL:        "http://localhost:8787",
			TimeoutSeconds: 20,
		},
		Auth: Auth{
			TokenType: "Bearer",
		},
		Layout: Layout{
			Width: 80,
		},
		Fetcher: Fetcher{
			UserAgent:      "typewise/1.0",
			TimeoutSeconds: 30,
		},
		History: History{
			Enabled: true,
			Limit:   history.DefaultLimit,
		},
		Log: Log{
			Level: "warn",
		},
	}
}

// Dir returns the configuration directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "typewise")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "typewise")
}

// ConfigPath returns the path to the user config file.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// HistoryPath returns the history database path, resolving the default.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return expandHome(c.History.Path)
	}
	return filepath.Join(Dir(), "history.db")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Load reads the user config file, or returns defaults if it doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path layered over the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	user, md, err := loadFromTOML(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	merge(cfg, user, md)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func loadFromTOML(path string) (*Config, toml.MetaData, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, md, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Warn("unknown config keys", "path", path, "keys", undecoded)
	}
	return &cfg, md, nil
}

// Validate checks values that would break the workflow.
func (c *Config) Validate() error {
	switch c.Backend.Provider {
	case "http", "llm", "local":
	default:
		return fmt.Errorf("backend.provider: unknown provider %q", c.Backend.Provider)
	}
	if c.General.MaxTextLength <= 0 {
		return fmt.Errorf("general.max_text_length must be positive")
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative")
	}
	return nil
}

// merge copies user values over defaults. Strings and numbers override when
// set; booleans override when the key appears in the file.
func merge(dst, src *Config, md toml.MetaData) {
	// General
	if md.IsDefined("general", "enabled") {
		dst.General.Enabled = src.General.Enabled
	}
	if src.General.Language != "" {
		dst.General.Language = src.General.Language
	}
	if src.General.Mode != "" {
		dst.General.Mode = src.General.Mode
	}
	if md.IsDefined("general", "privacy_enhanced") {
		dst.General.PrivacyEnhanced = src.General.PrivacyEnhanced
	}
	if src.General.MaxTextLength != 0 {
		dst.General.MaxTextLength = src.General.MaxTextLength
	}

	// Backend
	if src.Backend.Provider != "" {
		dst.Backend.Provider = src.Backend.Provider
	}
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutSeconds != 0 {
		dst.Backend.TimeoutSeconds = src.Backend.TimeoutSeconds
	}

	// Auth
	if src.Auth.AccessToken != "" {
		dst.Auth.AccessToken = src.Auth.AccessToken
	}
	if src.Auth.RefreshToken != "" {
		dst.Auth.RefreshToken = src.Auth.RefreshToken
	}
	if src.Auth.TokenType != "" {
		dst.Auth.TokenType = src.Auth.TokenType
	}
	if src.Auth.ExpiresAt != 0 {
		dst.Auth.ExpiresAt = src.Auth.ExpiresAt
	}
	if src.Auth.UserEmail != "" {
		dst.Auth.UserEmail = src.Auth.UserEmail
	}

	// LLM
	if src.LLM.Preferred != "" {
		dst.LLM.Preferred = src.LLM.Preferred
	}
	if src.LLM.Model != "" {
		dst.LLM.Model = src.LLM.Model
	}

	// Layout
	if src.Layout.Width != 0 {
		dst.Layout.Width = src.Layout.Width
	}

	// Fetcher
	if src.Fetcher.UserAgent != "" {
		dst.Fetcher.UserAgent = src.Fetcher.UserAgent
	}
	if src.Fetcher.TimeoutSeconds != 0 {
		dst.Fetcher.TimeoutSeconds = src.Fetcher.TimeoutSeconds
	}
	if src.Fetcher.ChromePath != "" {
		dst.Fetcher.ChromePath = src.Fetcher.ChromePath
	}
	if md.IsDefined("fetcher", "use_browser") {
		dst.Fetcher.UseBrowser = src.Fetcher.UseBrowser
	}

	// History
	if md.IsDefined("history", "enabled") {
		dst.History.Enabled = src.History.Enabled
	}
	if src.History.Path != "" {
		dst.History.Path = src.History.Path
	}
	if md.IsDefined("history", "limit") {
		dst.History.Limit = src.History.Limit
	}

	// Log
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
}

// Save writes cfg to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// The file may hold tokens.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return os.Rename(tmp, path)
}

// Store reads and writes one config file. The workflow loads settings
// fresh for each correction, so edits made elsewhere take effect.
type Store struct {
	path string
}

// NewStore returns a store for path, or the default location if empty.
func NewStore(path string) *Store {
	if path == "" {
		path = ConfigPath()
	}
	return &Store{path: path}
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the file layered over the defaults.
func (s *Store) Load() (*Config, error) {
	return LoadFrom(s.path)
}

// Save writes cfg to the file.
func (s *Store) Save(cfg *Config) error {
	return Save(cfg, s.path)
}

// Update loads the config, applies fn and saves the result.
func (s *Store) Update(fn func(*Config)) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	fn(cfg)
	return s.Save(cfg)
}

// ClearAuth forgets the backend session.
func (s *Store) ClearAuth() error {
	return s.Update(func(c *Config) {
		c.Auth = Default().Auth
	})
}

// ResetSettings restores the workflow and backend settings to their
// defaults. The session and the remaining sections are kept.
func (s *Store) ResetSettings() error {
	return s.Update(func(c *Config) {
		d := Default()
		c.General = d.General
		c.Backend.BaseURL = d.Backend.BaseURL
	})
}

// DefaultTOML returns the default config as a commented TOML string for
// --init-config.
func DefaultTOML() string {
	return `# typewise configuration
# Location: ~/.config/typewise/config.toml

[general]
enabled = true
language = "fr"              # sent to the backend with every request
mode = "MODE_ORTHO"          # MODE_ORTHO, MODE_GRAMMAR, MODE_REWRITE_LIGHT, MODE_REWRITE_PRO, MODE_CLARITY, MODE_TONE
privacy_enhanced = false     # true stops sending the page hostname
max_text_length = 3000       # characters

[backend]
provider = "http"            # http, llm or local
base_url = "http://localhost:8787"
timeout_seconds = 20

[auth]
# Filled in by --login
access_token = ""
refresh_token = ""
token_type = "Bearer"
expires_at = 0
user_email = ""

[llm]
preferred = ""               # claude-api, openai, claude-code or empty for auto
model = ""

[layout]
width = 80                   # columns used to place the correction panel

[fetcher]
user_agent = "typewise/1.0"
timeout_seconds = 30
chrome_path = ""             # empty uses the system Chrome
use_browser = false          # render pages with headless Chrome before editing

[history]
enabled = true
path = ""                    # empty uses history.db next to this file
limit = 100

[log]
level = "warn"               # debug, info, warn, error
`
}
