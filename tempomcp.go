// Package tempomcp provides an embeddable MCP server for Tempo Cloud
// worklog management.
package tempomcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/localrivet/tempomcp/internal/config"
	"github.com/localrivet/tempomcp/internal/errortypes"
	"github.com/localrivet/tempomcp/internal/ratelimit"
	"github.com/localrivet/tempomcp/internal/server"
	"github.com/localrivet/tempomcp/internal/telemetry"
	"github.com/localrivet/tempomcp/internal/tempo"
	"github.com/localrivet/tempomcp/internal/timeutil"
	"github.com/localrivet/tempomcp/internal/worklog"
)

// Config represents the configuration for the Tempo MCP service.
type Config = config.Config

// Server represents the Tempo MCP service.
type Server struct {
	config     *config.Config
	limiter    *ratelimit.Limiter
	client     *tempo.Client
	service    *worklog.Service
	toolServer server.WorklogToolServer
	logger     *slog.Logger
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, the default path is used.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.
}

// NewServer creates a new Tempo MCP Server with the given options.
// The configuration is validated before any component is created; a
// missing API token fails here, not on the first tool call.
func NewServer(opts ServerOptions) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
		logger.Info("Using provided Config object for server initialization")
	} else {
		path := opts.ConfigPath
		if path == "" {
			path = config.DefaultConfigFilename
		}
		logger.Info("Loading configuration for server initialization", "path", path)
		cfg, err = config.LoadConfigWithPath(path)
		if err != nil {
			logger.Error("Failed to load configuration", "path", path, "error", err)
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration failed validation", "error", err)
		return nil, err
	}

	limiter, client, service, err := CreateComponents(cfg, logger)
	if err != nil {
		logger.Error("Failed to create components during server initialization", "error", err)
		return nil, err
	}

	logger.Info("Initializing worklog tool server component")
	mcpServer := server.NewWorklogToolServer(service)
	if err := mcpServer.Initialize(); err != nil {
		logger.Error("Failed to initialize MCP worklog tool server component", "error", err)
		return nil, errortypes.ConfigError(err, "Failed to initialize MCP worklog tool server component")
	}

	logger.Info("Tempo MCP server successfully initialized")
	return &Server{
		config:     cfg,
		limiter:    limiter,
		client:     client,
		service:    service,
		toolServer: mcpServer,
		logger:     logger,
	}, nil
}

// DefaultConfig returns the default configuration for the Tempo MCP
// service. The API token must still be supplied before use.
func DefaultConfig() *Config {
	return config.NewConfig()
}

// CreateComponents creates the rate limiter, API client, and worklog
// service without creating a server instance. This is useful for hosts
// that register the tools on their own MCP server.
func CreateComponents(cfg *Config, logger *slog.Logger) (*ratelimit.Limiter, *tempo.Client, *worklog.Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	metrics := telemetry.NewMetricsCollector()

	logger.Info("Initializing rate limiter", "rate", cfg.Client.RateLimit)
	limiter := ratelimit.New(cfg.Client.RateLimit, ratelimit.WithMetrics(metrics))

	logger.Info("Initializing Tempo client", "base_url", cfg.Tempo.BaseURL)
	client, err := tempo.NewClient(tempo.ClientConfig{
		BaseURL:  cfg.Tempo.BaseURL,
		APIToken: cfg.Tempo.APIToken,
		Timeout:  time.Duration(cfg.Client.TimeoutSeconds) * time.Second,
		MaxTries: cfg.Client.MaxRetries,
		Limiter:  limiter,
		Metrics:  metrics,
	})
	if err != nil {
		logger.Error("Failed to create Tempo client", "error", err)
		return nil, nil, nil, err
	}

	service := worklog.NewService(client, client.Metrics())
	logger.Info("Components successfully initialized")
	return limiter, client, service, nil
}

// Start starts the Tempo MCP service on the stdio transport.
func (s *Server) Start() error {
	s.logger.Info("Starting Tempo MCP service")
	return s.toolServer.Start()
}

// Stop stops the Tempo MCP service.
func (s *Server) Stop() error {
	s.logger.Info("Stopping Tempo MCP service")
	if err := s.toolServer.Stop(); err != nil {
		s.logger.Error("Error stopping tool server", "error", err)
		return err
	}
	s.logger.Info("Tempo MCP service stopped")
	return nil
}

// LogTime records a worklog through the high-level API.
func (s *Server) LogTime(ctx context.Context, issueID int64, timeSpent, description string) (*tempo.Worklog, error) {
	return s.service.CreateWorklog(ctx, worklog.CreateParams{
		IssueID:     issueID,
		TimeSpent:   timeSpent,
		Description: description,
	})
}

// TodaySummary summarizes the time recorded today.
func (s *Server) TodaySummary(ctx context.Context) (*worklog.Summary, error) {
	today := timeutil.Today()
	return s.service.GetSummary(ctx, today, today, "")
}

// GetService returns the worklog service instance used by the server.
func (s *Server) GetService() *worklog.Service {
	return s.service
}

// GetClient returns the Tempo API client instance used by the server.
func (s *Server) GetClient() *tempo.Client {
	return s.client
}

// GetMetrics returns the metrics collector shared by the client and
// service.
func (s *Server) GetMetrics() *telemetry.MetricsCollector {
	return s.client.Metrics()
}
