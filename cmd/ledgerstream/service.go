package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	streamsconfig "github.com/c360studio/semstreams/config"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/c360studio/semstreams/service"
	"github.com/c360studio/semstreams/types"

	"github.com/c360studio/ledgerstream/config"
	"github.com/c360studio/ledgerstream/events"
)

// startNATS connects to an external NATS server or starts an embedded one.
// It returns the embedded server handle (nil when external) and the URL the
// client connected to.
func startNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, *server.Server, string, error) {
	var embedded *server.Server
	url := resolveNATSURL(cfg)

	if url == "" {
		// Start embedded NATS server
		logger.Info("Starting embedded NATS server")
		opts := &server.Options{
			Port:      -1, // Random available port
			JetStream: true,
			NoLog:     true,
			NoSigs:    true,
		}

		ns, err := server.NewServer(opts)
		if err != nil {
			return nil, nil, "", fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()

		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return nil, nil, "", fmt.Errorf("embedded NATS server failed to start")
		}

		embedded = ns
		url = ns.ClientURL()
	}

	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithCircuitBreakerThreshold(20), // Higher threshold for startup bursts
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		shutdownEmbedded(embedded)
		return nil, nil, "", fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		shutdownEmbedded(embedded)
		return nil, nil, "", wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		shutdownEmbedded(embedded)
		return nil, nil, "", wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, embedded, url, nil
}

// resolveNATSURL picks the external NATS URL, or returns empty when the
// service should run its own embedded server.
func resolveNATSURL(cfg *config.Config) string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}
	if cfg.NATS.URL != "" && !cfg.NATS.Embedded {
		return cfg.NATS.URL
	}
	return ""
}

func shutdownEmbedded(ns *server.Server) {
	if ns != nil {
		ns.Shutdown()
	}
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	// Check for common connection errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or leave nats.url unset to run the embedded server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

// buildServiceConfig translates the operator-facing YAML config into the
// semstreams service configuration: two processor components, the HTTP
// service manager, and the sync stream.
func buildServiceConfig(cfg *config.Config, natsURL string) *streamsconfig.Config {
	ingesterConfig := map[string]any{
		"spreadsheet_id":     cfg.Spreadsheet.ID,
		"credentials_file":   cfg.Spreadsheet.CredentialsFile,
		"endpoint":           cfg.Spreadsheet.Endpoint,
		"transactions_range": cfg.Spreadsheet.Ranges.Transactions,
		"categories_range":   cfg.Spreadsheet.Ranges.Categories,
		"balances_range":     cfg.Spreadsheet.Ranges.BalanceHistory,
		"sync_interval":      cfg.Sync.Interval.String(),
		"sync_on_start":      cfg.Sync.OnStart,
		"watch_credentials":  cfg.Sync.WatchCredentials,
	}
	if len(cfg.Spreadsheet.Scopes) > 0 {
		ingesterConfig["scopes"] = cfg.Spreadsheet.Scopes
	}
	ingesterJSON, _ := json.Marshal(ingesterConfig)

	apiJSON, _ := json.Marshal(map[string]any{})

	serviceManagerJSON, _ := json.Marshal(map[string]any{
		"http_port":  cfg.Server.Port,
		"swagger_ui": false,
		"server_info": map[string]string{
			"title":       "Ledgerstream API",
			"description": "Tiller spreadsheet sync and personal-finance analytics",
			"version":     Version,
		},
	})

	return &streamsconfig.Config{
		Version: "1.0.0",
		Platform: streamsconfig.PlatformConfig{
			Org:         appName,
			ID:          appName + "-local",
			Environment: "dev",
		},
		NATS: streamsconfig.NATSConfig{
			URLs:          []string{natsURL},
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			JetStream: streamsconfig.JetStreamConfig{
				Enabled: true,
			},
		},
		Services: types.ServiceConfigs{
			"service-manager": types.ServiceConfig{
				Name:    "service-manager",
				Enabled: true,
				Config:  serviceManagerJSON,
			},
		},
		Components: streamsconfig.ComponentConfigs{
			"sheet-ingester": types.ComponentConfig{
				Name:    "sheet-ingester",
				Type:    types.ComponentTypeProcessor,
				Enabled: true,
				Config:  ingesterJSON,
			},
			"ledger-api": types.ComponentConfig{
				Name:    "ledger-api",
				Type:    types.ComponentTypeProcessor,
				Enabled: true,
				Config:  apiJSON,
			},
		},
		Streams: streamsconfig.StreamConfigs{
			events.StreamName: streamsconfig.StreamConfig{
				Subjects: []string{"ledger.sync.>"},
				MaxAge:   "24h",
				Storage:  "memory",
				Replicas: 1,
			},
		},
	}
}

func ensureStreams(ctx context.Context, scfg *streamsconfig.Config, natsClient *natsclient.Client, logger *slog.Logger) error {
	logger.Debug("Creating JetStream streams")
	streamsManager := streamsconfig.NewStreamsManager(natsClient, logger)

	if err := streamsManager.EnsureStreams(ctx, scfg); err != nil {
		return fmt.Errorf("ensure streams: %w", err)
	}

	logger.Debug("JetStream streams ready")
	return nil
}

func extractPlatformMeta(scfg *streamsconfig.Config) types.PlatformMeta {
	platformID := scfg.Platform.InstanceID
	if platformID == "" {
		platformID = scfg.Platform.ID
	}

	return types.PlatformMeta{
		Org:      scfg.Platform.Org,
		Platform: platformID,
	}
}

// configureAndCreateServices configures the manager and creates all services
func configureAndCreateServices(
	scfg *streamsconfig.Config,
	manager *service.Manager,
	svcDeps *service.Dependencies,
) error {
	slog.Debug("Configuring Manager")
	if err := manager.ConfigureFromServices(scfg.Services, svcDeps); err != nil {
		return fmt.Errorf("configure service manager: %w", err)
	}

	slog.Debug("Creating services from config", "count", len(scfg.Services))
	for name, svcConfig := range scfg.Services {
		if name == "service-manager" {
			slog.Debug("Skipping service-manager (configured directly)")
			continue
		}

		if err := createServiceIfEnabled(manager, name, svcConfig, svcDeps); err != nil {
			return err
		}
	}

	return nil
}

// createServiceIfEnabled creates a service if it's enabled and registered
func createServiceIfEnabled(
	manager *service.Manager,
	name string,
	svcConfig types.ServiceConfig,
	svcDeps *service.Dependencies,
) error {
	slog.Debug("Processing service config", "key", name, "name", svcConfig.Name, "enabled", svcConfig.Enabled)

	if !svcConfig.Enabled {
		slog.Info("Service disabled in config", "name", name)
		return nil
	}

	if !manager.HasConstructor(name) {
		slog.Warn("Service configured but not registered", "key", name, "available_constructors", manager.ListConstructors())
		return nil
	}

	slog.Debug("Creating service", "name", name, "has_constructor", true)
	if _, err := manager.CreateService(name, svcConfig.Config, svcDeps); err != nil {
		return fmt.Errorf("create service %s: %w", name, err)
	}

	slog.Info("Created service", "name", name, "config_name", svcConfig.Name)
	return nil
}
