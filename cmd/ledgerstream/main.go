// Package main provides the ledgerstream binary entry point.
// Ledgerstream pulls a Tiller-style Google Sheets ledger into NATS-backed
// storage and serves personal-finance analytics over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/componentregistry"
	streamsconfig "github.com/c360studio/semstreams/config"
	"github.com/c360studio/semstreams/metric"
	"github.com/c360studio/semstreams/service"

	"github.com/c360studio/ledgerstream/config"
	ledgerapi "github.com/c360studio/ledgerstream/processor/ledger-api"
	sheetingester "github.com/c360studio/ledgerstream/processor/sheet-ingester"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ledgerstream"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "ledgerstream",
		Short: "Tiller spreadsheet dashboard service",
		Long: `Ledgerstream syncs a Tiller-style Google Sheets ledger and serves
spending, income, and net worth analytics over HTTP.

It provides:
- Scheduled and on-demand spreadsheet syncs into JetStream KV storage
- A dashboard API with spending, income, balance, and net worth views
- Prometheus metrics for syncs and API traffic

Components communicate via NATS using the semstreams framework.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, logLevel, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port override")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	cmd.AddCommand(syncCmd())

	return cmd
}

func run(configPath, logLevel string, port int) error {
	// Print banner
	printBanner()

	// Configure logging
	logger := setupLogging(logLevel)

	// Service account paths and spreadsheet IDs usually live in a .env file.
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}

	// Load configuration
	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Start NATS (embedded or connect to external)
	ctx := context.Background()
	natsClient, embedded, natsURL, err := startNATS(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer natsClient.Close(ctx)
	if embedded != nil {
		defer func() {
			embedded.Shutdown()
			embedded.WaitForShutdown()
		}()
	}

	// Build the semstreams service configuration
	scfg := buildServiceConfig(cfg, natsURL)

	// Ensure JetStream streams exist
	if err := ensureStreams(ctx, scfg, natsClient, logger); err != nil {
		return err
	}

	slog.Info("Ledgerstream ready",
		"version", Version,
		"spreadsheet_id", cfg.Spreadsheet.ID,
		"http_port", cfg.Server.Port)

	// Create remaining infrastructure
	metricsRegistry := metric.NewMetricsRegistry()
	platform := extractPlatformMeta(scfg)

	// Create and start config manager (required for component-manager to access component configs)
	configManager, err := streamsconfig.NewConfigManager(scfg, natsClient, logger)
	if err != nil {
		return fmt.Errorf("create config manager: %w", err)
	}
	if err := configManager.Start(ctx); err != nil {
		return fmt.Errorf("start config manager: %w", err)
	}
	defer configManager.Stop(5 * time.Second)

	// Create and populate component registry
	componentRegistry := component.NewRegistry()

	// Register all semstreams components
	slog.Debug("Registering semstreams component factories")
	if err := componentregistry.Register(componentRegistry); err != nil {
		return fmt.Errorf("register semstreams components: %w", err)
	}

	// Register ledgerstream components
	slog.Debug("Registering ledgerstream component factories")
	if err := sheetingester.Register(componentRegistry); err != nil {
		return fmt.Errorf("register sheet-ingester: %w", err)
	}
	if err := ledgerapi.Register(componentRegistry); err != nil {
		return fmt.Errorf("register ledger-api: %w", err)
	}

	factories := componentRegistry.ListFactories()
	slog.Info("Component factories registered", "count", len(factories))

	// Create service registry and manager (semstreams pattern)
	serviceRegistry := service.NewServiceRegistry()
	if err := service.RegisterAll(serviceRegistry); err != nil {
		return fmt.Errorf("register services: %w", err)
	}

	manager := service.NewServiceManager(serviceRegistry)

	// Create service dependencies
	svcDeps := &service.Dependencies{
		NATSClient:        natsClient,
		MetricsRegistry:   metricsRegistry,
		Logger:            logger,
		Platform:          platform,
		Manager:           configManager,
		ComponentRegistry: componentRegistry,
	}

	// Configure and create services
	if err := configureAndCreateServices(scfg, manager, svcDeps); err != nil {
		return err
	}

	slog.Info("All services configured")

	// Setup signal handling
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	// Start all services (includes HTTP server with health endpoints)
	slog.Info("Starting all services")
	if err := manager.StartAll(signalCtx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	slog.Info("All services started successfully")

	// Block until shutdown signal
	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	// Stop all services
	shutdownTimeout := 30 * time.Second
	if err := manager.StopAll(shutdownTimeout); err != nil {
		slog.Error("Error stopping services", "error", err)
	}

	slog.Info("Ledgerstream shutdown complete")
	return nil
}

func setupLogging(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func printBanner() {
	fmt.Println("╔═══════════════════════════════════════════════╗")
	fmt.Println("║           Ledgerstream v" + Version + "                ║")
	fmt.Println("║      Tiller Spreadsheet Dashboard             ║")
	fmt.Println("╚═══════════════════════════════════════════════╝")
}

func loadConfig(configPath string, logger *slog.Logger) (*config.Config, error) {
	if configPath != "" {
		// Load from file with environment variable substitution
		return config.LoadFromFile(configPath)
	}

	// Layered load: defaults, user config, project config, environment
	return config.NewLoader(logger).Load()
}
