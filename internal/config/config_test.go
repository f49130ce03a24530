package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	tests := []struct {
		name  string
		check func(*Config) bool
	}{
		{"default host is 0.0.0.0", func(c *Config) bool { return c.Host == "0.0.0.0" }},
		{"default port is 8080", func(c *Config) bool { return c.Port == 8080 }},
		{"default log level is info", func(c *Config) bool { return c.LogLevel == "info" }},
		{"default log format is json", func(c *Config) bool { return c.LogFormat == "json" }},
		{"default metrics path", func(c *Config) bool { return c.MetricsPath == "/metrics" }},
		{"listen addr format", func(c *Config) bool { return c.ListenAddr() == "0.0.0.0:8080" }},
		{"default access ttl", func(c *Config) bool { return c.AccessTTL == 15*time.Minute }},
		{"default check-in refresh", func(c *Config) bool { return c.CheckInRefresh == 24*time.Hour }},
		{"ripperd enabled by default", func(c *Config) bool { return !c.RipperdDisabled }},
		{"samsara disabled by default", func(c *Config) bool { return !c.SamsaraEnabled }},
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(cfg) {
				t.Errorf("unexpected value for %s", tt.name)
			}
		})
	}
}
