package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/localrivet/tempomcp/internal/errortypes"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Tempo.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", cfg.Tempo.BaseURL)
	}
	if cfg.Client.RateLimit != DefaultRateLimit {
		t.Errorf("expected rate limit %d, got %d", DefaultRateLimit, cfg.Client.RateLimit)
	}
	if cfg.Client.TimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("expected timeout %d, got %d", DefaultTimeoutSeconds, cfg.Client.TimeoutSeconds)
	}
	if cfg.Client.MaxRetries != DefaultMaxRetries {
		t.Errorf("expected max retries %d, got %d", DefaultMaxRetries, cfg.Client.MaxRetries)
	}
	if cfg.Logging.Level != DefaultLogLevel || cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestValidateRequiresToken(t *testing.T) {
	cfg := NewConfig()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if !errortypes.IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.Tempo.APIToken = "token"

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestSaveToFileRecordsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFilename)
	cfg := NewConfig()

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	if cfg.GetConfigPath() != path {
		t.Errorf("expected config path %q, got %q", path, cfg.GetConfigPath())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected configuration file on disk: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad base url", func(c *Config) { c.Tempo.BaseURL = "not a url" }},
		{"zero rate limit", func(c *Config) { c.Client.RateLimit = 0 }},
		{"zero timeout", func(c *Config) { c.Client.TimeoutSeconds = 0 }},
		{"zero retries", func(c *Config) { c.Client.MaxRetries = 0 }},
		{"empty log level", func(c *Config) { c.Logging.Level = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Tempo.APIToken = "token"
			tc.mutate(cfg)
			err := cfg.Validate()
			if !errortypes.IsConfigError(err) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}
