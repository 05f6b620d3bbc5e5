package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.General.Enabled {
		t.Error("expected enabled by default")
	}
	if cfg.General.Mode != "MODE_ORTHO" {
		t.Errorf("expected MODE_ORTHO, got %q", cfg.General.Mode)
	}
	if cfg.General.MaxTextLength != 3000 {
		t.Errorf("expected 3000, got %d", cfg.General.MaxTextLength)
	}
	if cfg.Backend.Timeout() != 20*time.Second {
		t.Errorf("expected 20s, got %v", cfg.Backend.Timeout())
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[general]
mode = "MODE_GRAMMAR"
privacy_enhanced = true

[backend]
base_url = "https://api.example.com"
`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.General.Mode != "MODE_GRAMMAR" {
		t.Errorf("expected MODE_GRAMMAR, got %q", cfg.General.Mode)
	}
	if !cfg.General.PrivacyEnhanced {
		t.Error("expected privacy_enhanced to be set")
	}
	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Errorf("expected overridden base URL, got %q", cfg.Backend.BaseURL)
	}
	// Untouched values keep their defaults.
	if cfg.General.Language != "fr" {
		t.Errorf("expected fr, got %q", cfg.General.Language)
	}
	if !cfg.General.Enabled {
		t.Error("expected enabled to stay true when absent")
	}
	if cfg.History.Limit != 100 {
		t.Errorf("expected 100, got %d", cfg.History.Limit)
	}
}

func TestLoadExplicitFalse(t *testing.T) {
	path := writeConfig(t, `
[general]
enabled = false

[history]
enabled = false
`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.General.Enabled {
		t.Error("expected enabled = false to override the default")
	}
	if cfg.History.Enabled {
		t.Error("expected history disabled")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[general\nmode = 1"},
		{"provider", "[backend]\nprovider = \"carrier-pigeon\""},
		{"negative limit", "[history]\nlimit = -1"},
		{"negative length", "[general]\nmax_text_length = -5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	store := NewStore(path)

	err := store.Update(func(c *Config) {
		c.General.Mode = "MODE_CLARITY"
		c.General.Enabled = false
		c.Auth.AccessToken = "tok"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600, got %v", info.Mode().Perm())
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.General.Mode != "MODE_CLARITY" {
		t.Errorf("expected MODE_CLARITY, got %q", cfg.General.Mode)
	}
	if cfg.General.Enabled {
		t.Error("expected disabled after save")
	}
	if cfg.Auth.AccessToken != "tok" {
		t.Errorf("expected token, got %q", cfg.Auth.AccessToken)
	}
}

func TestDefaultTOMLMatchesDefault(t *testing.T) {
	var cfg Config
	md, err := toml.Decode(DefaultTOML(), &cfg)
	if err != nil {
		t.Fatalf("default TOML does not parse: %v", err)
	}
	if len(md.Undecoded()) > 0 {
		t.Errorf("unexpected keys: %v", md.Undecoded())
	}
	def := Default()
	if cfg != *def {
		t.Errorf("expected DefaultTOML to match Default()\n got: %+v\nwant: %+v", cfg, *def)
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := Default()
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := cfg.HistoryPath(); got != "/tmp/xdg/typewise/history.db" {
		t.Errorf("expected default path, got %q", got)
	}
	cfg.History.Path = "/var/lib/tw.db"
	if got := cfg.HistoryPath(); got != "/var/lib/tw.db" {
		t.Errorf("expected explicit path, got %q", got)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"loud", slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := (Log{Level: tt.in}).SlogLevel(); got != tt.want {
			t.Errorf("%q: expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestAuthExpired(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	if (Auth{}).Expired(now) {
		t.Error("expected no expiry when unset")
	}
	if !(Auth{ExpiresAt: 999_999}).Expired(now) {
		t.Error("expected expired")
	}
	if (Auth{ExpiresAt: 1_000_001}).Expired(now) {
		t.Error("expected not yet expired")
	}
}

func TestClearAuth(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "config.toml"))
	err := store.Update(func(c *Config) {
		c.Auth.AccessToken = "tok"
		c.Auth.RefreshToken = "ref"
		c.Auth.TokenType = "Token"
		c.Auth.ExpiresAt = 1700000000000
		c.Auth.UserEmail = "a@b.c"
		c.General.Language = "en"
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.ClearAuth(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Auth != Default().Auth {
		t.Errorf("expected default auth, got %+v", cfg.Auth)
	}
	if cfg.General.Language != "en" {
		t.Errorf("expected settings kept, got language %q", cfg.General.Language)
	}
}

func TestResetSettings(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "config.toml"))
	err := store.Update(func(c *Config) {
		c.General.Language = "en"
		c.General.Mode = "MODE_TONE"
		c.General.PrivacyEnhanced = true
		c.Backend.BaseURL = "https://api.example.com"
		c.Auth.AccessToken = "tok"
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := store.ResetSettings(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General != Default().General {
		t.Errorf("expected default settings, got %+v", cfg.General)
	}
	if cfg.Backend.BaseURL != "http://localhost:8787" {
		t.Errorf("expected default base URL, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Auth.AccessToken != "tok" {
		t.Errorf("expected session kept, got %q", cfg.Auth.AccessToken)
	}
}
