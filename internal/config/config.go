package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/localrivet/configurator"

	"github.com/localrivet/tempomcp/internal/errortypes"
)

// Global configuration instance
var (
	// Global is the global configuration instance
	Global *Config
	// initOnce ensures initialization happens only once
	initOnce sync.Once
)

// InitGlobal initializes the global configuration
func InitGlobal(configPath string) (*Config, error) {
	var err error
	initOnce.Do(func() {
		Global, err = LoadConfigWithPath(configPath)
	})
	return Global, err
}

// Config represents the Tempo MCP server configuration
type Config struct {
	// Tempo contains the remote API settings.
	Tempo struct {
		// APIToken is the Tempo Cloud API bearer token.
		APIToken string `json:"api_token" env:"API_TOKEN" validate:"required"`

		// BaseURL is the Tempo REST API base URL.
		BaseURL string `json:"base_url" env:"BASE_URL" validate:"required,url"`
	} `json:"tempo"`

	// Client contains the HTTP client and rate-limit settings.
	Client struct {
		// RateLimit is the number of outbound requests allowed per second.
		RateLimit int `json:"rate_limit" env:"RATE_LIMIT" validate:"min=1"`

		// TimeoutSeconds is the per-attempt HTTP timeout in seconds.
		TimeoutSeconds int `json:"timeout_seconds" env:"TIMEOUT_SECONDS" validate:"min=1"`

		// MaxRetries is the total attempt bound for retryable failures.
		MaxRetries int `json:"max_retries" env:"MAX_RETRIES" validate:"min=1"`
	} `json:"client"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	// Debug enables verbose diagnostics.
	Debug bool `json:"debug" env:"DEBUG"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".tempomcpconfig"
	DefaultBaseURL        = "https://api.tempo.io/4"
	DefaultRateLimit      = 5
	DefaultTimeoutSeconds = 30
	DefaultMaxRetries     = 3
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Tempo.BaseURL = DefaultBaseURL
	config.Client.RateLimit = DefaultRateLimit
	config.Client.TimeoutSeconds = DefaultTimeoutSeconds
	config.Client.MaxRetries = DefaultMaxRetries
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path.
// Layering is defaults, then the config file if present, then TEMPO_*
// environment variables. The loaded config is not yet validated; call
// Validate before using it.
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Stderr keeps diagnostics out of the MCP stdio stream.
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := NewConfig()

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	config := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider())
	if _, err := os.Stat(configPath); err == nil {
		stdLogger.Info("Loading configuration", "path", configPath)
		config = config.WithProvider(configurator.NewFileProvider(configPath))
	} else {
		stdLogger.Info("Config file not found, using defaults and environment", "path", configPath)
	}
	config = config.WithProvider(configurator.NewEnvProvider("TEMPO"))

	ctx := context.Background()
	if err := config.Load(ctx, cfg); err != nil {
		return nil, errortypes.ConfigError(err, "failed to load configuration")
	}

	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// Validate checks the loaded configuration. A missing API token or any
// out-of-range value is a ConfigError; the caller should treat it as
// fatal at startup.
func (c *Config) Validate() error {
	if c.Tempo.APIToken == "" {
		return errortypes.ConfigError(
			errors.New("set TEMPO_API_TOKEN or the tempo.api_token config field"),
			"tempo api token is required")
	}
	if err := validator.New().Struct(c); err != nil {
		return errortypes.ConfigError(err, "invalid configuration")
	}
	return nil
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	c.configPath = path
	c.lastModifiedAt = time.Now()

	return nil
}

// Save saves the configuration to the last used file path
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigFilename
	}
	return c.SaveToFile(c.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}
