package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/localrivet/tempomcp/internal/config"
	"github.com/localrivet/tempomcp/internal/errortypes"
	"github.com/localrivet/tempomcp/internal/logger"
	"github.com/localrivet/tempomcp/internal/ratelimit"
	"github.com/localrivet/tempomcp/internal/server"
	"github.com/localrivet/tempomcp/internal/telemetry"
	"github.com/localrivet/tempomcp/internal/tempo"
	"github.com/localrivet/tempomcp/internal/worklog"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigFilename, "path to the configuration file")
	initConfig := flag.Bool("init-config", false, "write a starter configuration file and exit")
	flag.Parse()

	// Initialize logging first thing
	appLogger := setupLogging()

	if *initConfig {
		cfg := config.NewConfig()
		if err := cfg.SaveToFile(*configPath); err != nil {
			errortypes.LogError(nil, err)
			appLogger.Fatal("Failed to write configuration file")
		}
		appLogger.Info("Wrote starter configuration to %s", cfg.GetConfigPath())
		return
	}

	appLogger.Info("Tempo MCP Server - Starting...")

	// Load and validate configuration
	cfg, err := config.LoadConfigWithPath(*configPath)
	if err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("Invalid configuration")
	}

	// Configure logging based on config
	if cfg.Logging.Level != "" {
		appLogger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
		appLogger.Info("Log level set to %s", cfg.Logging.Level)
	}
	if cfg.Debug {
		appLogger.SetLevel(logger.DEBUG)
	}
	if cfg.Logging.Format == "json" {
		appLogger.SetFormat(logger.JSON)
		appLogger.Info("Log format set to JSON")
	}

	// Initialize the rate limiter and shared metrics
	metrics := telemetry.NewMetricsCollector()
	limiter := ratelimit.New(cfg.Client.RateLimit, ratelimit.WithMetrics(metrics))
	appLogger.WithContext("ratelimit").Info("Rate limiter initialized at %d requests/second", cfg.Client.RateLimit)

	// Initialize the Tempo API client
	client, err := tempo.NewClient(tempo.ClientConfig{
		BaseURL:  cfg.Tempo.BaseURL,
		APIToken: cfg.Tempo.APIToken,
		Timeout:  time.Duration(cfg.Client.TimeoutSeconds) * time.Second,
		MaxTries: cfg.Client.MaxRetries,
		Limiter:  limiter,
		Metrics:  metrics,
	})
	if err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("Failed to initialize Tempo client")
	}
	appLogger.WithContext("tempo").Info("Tempo client initialized for %s", cfg.Tempo.BaseURL)

	// Initialize the worklog service
	service := worklog.NewService(client, client.Metrics())
	appLogger.WithContext("worklog").Info("Worklog service initialized")

	// Initialize the MCP server
	srv := server.NewWorklogToolServer(service)
	srvLogger := appLogger.WithContext("server")

	if err := srv.Initialize(); err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("Failed to initialize MCP server")
	}
	srvLogger.Info("MCP server initialized")

	// Handle graceful shutdown
	setupSignalHandler(srv, appLogger)

	// Start the MCP server (this will block until server is terminated)
	srvLogger.Info("Starting MCP server...")
	if err := srv.Start(); err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("MCP server failed")
	}
}

// setupLogging configures and returns the application logger
func setupLogging() *logger.Logger {
	// Create default configuration
	cfg := logger.DefaultConfig()

	// Try to get log level from environment variable
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		cfg.Level = logger.ParseLevel(levelStr)
	}

	// Create and return logger
	appLogger := logger.New(cfg)
	logger.SetDefaultLogger(appLogger)

	return appLogger
}

// setupSignalHandler sets up a signal handler for graceful shutdown.
func setupSignalHandler(srv server.WorklogToolServer, log *logger.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Received shutdown signal, terminating gracefully...")

		if err := srv.Stop(); err != nil {
			errortypes.LogError(nil, err)
		}

		log.Info("Shutdown complete")
		os.Exit(0)
	}()
}
