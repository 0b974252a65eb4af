package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/ledgerstream/events"
	"github.com/c360studio/ledgerstream/storage"
)

// syncCmd triggers a sync on a running service and waits for the result.
func syncCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Trigger a spreadsheet sync and wait for it to finish",
		Long: `Sync publishes a sync request to a running ledgerstream service and
polls the run record until it completes. The service must be reachable
over NATS: set nats.url in the config or the NATS_URL environment
variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncCommand(configPath, logLevel, timeout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "How long to wait for the sync to finish")

	return cmd
}

func runSyncCommand(configPath, logLevel string, timeout time.Duration) error {
	logger := setupLogging(logLevel)

	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}

	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	url := resolveNATSURL(cfg)
	if url == "" {
		return fmt.Errorf("sync needs a running ledgerstream service: set nats.url in the config or the NATS_URL environment variable")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := natsclient.NewClient(url, natsclient.WithName(appName+"-sync"))
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return wrapNATSError(err, url)
	}
	defer client.Close(ctx)

	connCtx, connCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connCancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		return wrapNATSError(err, url)
	}

	js, err := client.JetStream()
	if err != nil {
		return fmt.Errorf("get jetstream: %w", err)
	}
	store, err := storage.NewStore(ctx, js)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}

	req := &events.SyncRequest{
		RunID:       uuid.New().String(),
		Trigger:     storage.TriggerManual,
		RequestedAt: time.Now().UTC(),
	}
	if err := events.PublishSyncRequest(ctx, client, appName+"-sync", req); err != nil {
		return fmt.Errorf("publish sync request: %w", err)
	}

	fmt.Printf("Sync requested (run %s), waiting up to %s...\n", req.RunID, timeout)

	run, err := waitForRun(ctx, store, req.RunID)
	if err != nil {
		return err
	}

	if !run.Succeeded() {
		return fmt.Errorf("sync failed: %s", run.Error)
	}

	fmt.Printf("Sync complete in %s: %d transactions, %d categories, %d balance rows\n",
		run.Duration().Round(time.Millisecond),
		run.TransactionCount, run.CategoryCount, run.BalanceCount)
	return nil
}

// waitForRun polls the run record until it completes or ctx expires.
// The run key only appears once the ingester picks the request up, so
// lookup failures just mean not yet.
func waitForRun(ctx context.Context, store *storage.Store, runID string) (*storage.SyncRun, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for sync %s", runID)
		case <-ticker.C:
			run, err := store.GetSyncRun(ctx, runID)
			if err != nil {
				continue
			}
			if run.CompletedAt != nil {
				return run, nil
			}
		}
	}
}
