// Package voxovclient implements the thin HTTP client voxovctl uses to
// speak the header-driven wire protocol described in internal/transport,
// plus the on-disk session/plan state a CLI session needs between runs.
package voxovclient

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Session is a cached access/refresh token pair plus when each was last
// minted, so the CLI can tell when a refresh (or a full re-auth) is due
// without asking the server first.
type Session struct {
	Access        string    `json:"access"`
	Refresh       string    `json:"refresh"`
	AccessIssued  time.Time `json:"access_issued"`
	RefreshIssued time.Time `json:"refresh_issued"`
}

// AccessExpired reports whether the cached access token is past the
// server's TTL for it.
func (s *Session) AccessExpired(ttl time.Duration) bool {
	return time.Now().After(s.AccessIssued.Add(ttl))
}

// RefreshExpired reports whether the cached refresh token is past the
// server's TTL for it.
func (s *Session) RefreshExpired(ttl time.Duration) bool {
	return time.Now().After(s.RefreshIssued.Add(ttl))
}

// NeedsRefresh reports whether the access token is more than halfway to
// expiry, the point at which it's worth refreshing proactively.
func (s *Session) NeedsRefresh(ttl time.Duration) bool {
	return time.Now().After(s.AccessIssued.Add(ttl / 2))
}

// Plan is the budget the CLI declares on every billable request.
type Plan struct {
	Time    int64 `json:"time"`
	Space   int64 `json:"space"`
	Traffic int64 `json:"traffic"`
	Tip     int64 `json:"tip"`
}

// Config is voxovctl's persisted state: server URL, cached session, and
// the spending plan attached to every request.
type Config struct {
	URL     string   `json:"url"`
	Session *Session `json:"session,omitempty"`
	Plan    Plan     `json:"plan"`
}

// defaultConfig is what a fresh install starts with.
func defaultConfig() *Config {
	const defaultBudget = 1_000_000_000
	return &Config{
		URL:  "http://localhost:8080",
		Plan: Plan{Time: defaultBudget, Space: defaultBudget, Traffic: defaultBudget, Tip: defaultBudget},
	}
}

// ConfigPath returns where voxovctl's config file lives, honoring
// XDG_CONFIG_HOME on Linux.
func ConfigPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	dir = filepath.Join(dir, "voxov-cli")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig reads the config file, creating a default one on first run.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := defaultConfig()
		return cfg, cfg.Save()
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the config back to disk.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
