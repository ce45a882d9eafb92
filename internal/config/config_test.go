package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesTemplates(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// A fresh directory gets both template files.
	for _, name := range []string{"config.toml", "credentials.toml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("template %s not created: %v", name, err)
		}
	}

	// Defaults apply when the config file was absent.
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Analysis.DefaultMinVolume != 75 {
		t.Errorf("DefaultMinVolume = %d, want 75", cfg.Analysis.DefaultMinVolume)
	}
	if cfg.Analysis.DefaultMinDTE != 7 {
		t.Errorf("DefaultMinDTE = %d, want 7", cfg.Analysis.DefaultMinDTE)
	}
	if cfg.Vehicle.MinExpectedMove != 3.0 {
		t.Errorf("MinExpectedMove = %v, want 3.0", cfg.Vehicle.MinExpectedMove)
	}
	if cfg.Vehicle.ATRPeriod != 14 {
		t.Errorf("ATRPeriod = %d, want 14", cfg.Vehicle.ATRPeriod)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[server]
port = 9090

[analysis]
default_min_volume = 150
iv_high_threshold = 55.0
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Analysis.DefaultMinVolume != 150 {
		t.Errorf("DefaultMinVolume = %d, want 150", cfg.Analysis.DefaultMinVolume)
	}
	if cfg.Analysis.IVHighThreshold != 55.0 {
		t.Errorf("IVHighThreshold = %v, want 55.0", cfg.Analysis.IVHighThreshold)
	}
	// Unspecified keys keep their defaults.
	if cfg.Analysis.TopStrikesLimit != 5 {
		t.Errorf("TopStrikesLimit = %d, want default 5", cfg.Analysis.TopStrikesLimit)
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	creds := `
[finnhub]
api_key = "fh-key"

[openai]
api_key = "oa-key"
`
	if err := os.WriteFile(filepath.Join(dir, "credentials.toml"), []byte(creds), 0600); err != nil {
		t.Fatalf("writing credentials: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Credentials.Finnhub.APIKey != "fh-key" {
		t.Errorf("Finnhub key = %q, want fh-key", cfg.Credentials.Finnhub.APIKey)
	}
	if cfg.Credentials.OpenAI.APIKey != "oa-key" {
		t.Errorf("OpenAI key = %q, want oa-key", cfg.Credentials.OpenAI.APIKey)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "env-key")
	t.Setenv("PORT", "7001")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Credentials.Finnhub.APIKey != "env-key" {
		t.Errorf("Finnhub key = %q, want env override", cfg.Credentials.Finnhub.APIKey)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want 7001", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	valid, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero min volume", func(c *Config) { c.Analysis.DefaultMinVolume = 0 }},
		{"inverted iv thresholds", func(c *Config) { c.Analysis.IVLowThreshold = 70 }},
		{"inverted swing dte", func(c *Config) { c.Vehicle.SwingMinDTE = 60 }},
		{"bad atr period", func(c *Config) { c.Vehicle.ATRPeriod = 0 }},
		{"inverted volatility bands", func(c *Config) { c.Vehicle.VolatilityLowPct = 5.0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v, want nil", err)
	}
}
