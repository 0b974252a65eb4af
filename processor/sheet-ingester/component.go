// Package sheetingester provides a component that pulls Tiller spreadsheet
// data and stores ledger snapshots for the API to serve.
package sheetingester

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/ledgerstream/events"
	"github.com/c360studio/ledgerstream/metrics"
	"github.com/c360studio/ledgerstream/sheets"
	"github.com/c360studio/ledgerstream/storage"
)

// sheetIngesterSchema defines the configuration schema.
var sheetIngesterSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// errSyncInProgress is returned when a sync is requested while another is running.
var errSyncInProgress = errors.New("sync already in progress")

// Component implements the sheet-ingester processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger
	platform   component.PlatformMeta
	syncer     *Syncer
	watcher    *sheets.CredentialsWatcher

	// Lifecycle management
	running   bool
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc

	// Metrics
	syncsCompleted atomic.Int64
	errors         atomic.Int64
	syncing        atomic.Bool
	lastActivityMu sync.RWMutex
	lastActivity   time.Time
}

// NewComponent creates a new sheet-ingester processor component.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Use default config if ports not set
	if config.Ports == nil {
		config = DefaultConfig()
		// Re-unmarshal to get user-provided values
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Component{
		name:       "sheet-ingester",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLogger(),
		platform:   deps.Platform,
	}

	return c, nil
}

// Initialize prepares the component.
func (c *Component) Initialize() error {
	return nil
}

// Start begins serving sync requests and scheduled syncs.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("component already running")
	}
	if c.natsClient == nil {
		c.mu.Unlock()
		return fmt.Errorf("NATS client required")
	}
	// Mark as starting immediately to prevent concurrent starts
	c.running = true
	c.startTime = time.Now()
	c.mu.Unlock()

	// Create the Sheets client
	client, err := sheets.NewClient(sheets.Config{
		SpreadsheetID:   c.config.SpreadsheetID,
		CredentialsFile: c.config.CredentialsFile,
		Scopes:          c.config.Scopes,
		Endpoint:        c.config.Endpoint,
	}, c.logger)
	if err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return fmt.Errorf("create sheets client: %w", err)
	}

	// Create the snapshot store
	js, err := c.natsClient.JetStream()
	if err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return fmt.Errorf("get jetstream: %w", err)
	}
	store, err := storage.NewStore(ctx, js)
	if err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return fmt.Errorf("create store: %w", err)
	}

	c.syncer = NewSyncer(client, store, c.config, c.logger)

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	// Start consumer in background
	go c.consumeMessages(runCtx)

	// Start interval syncs if configured
	if interval := c.config.GetSyncInterval(); interval > 0 {
		go c.intervalLoop(runCtx, interval)
	}

	// Run startup sync in background
	if c.config.SyncOnStart {
		go func() {
			run := storage.NewSyncRun(storage.TriggerStartup)
			if err := c.runSync(runCtx, run); err != nil && !errors.Is(err, errSyncInProgress) {
				c.logger.Error("Startup sync failed", "run_id", run.ID, "error", err)
			}
		}()
	}

	// Watch the credentials file for rotation
	if c.config.WatchCredentials && c.config.CredentialsFile != "" {
		watcher, err := sheets.NewCredentialsWatcher(client, c.config.CredentialsFile, c.logger)
		if err != nil {
			c.logger.Error("Failed to create credentials watcher", "error", err)
		} else if err := watcher.Start(); err != nil {
			c.logger.Error("Failed to start credentials watcher", "error", err)
		} else {
			c.watcher = watcher
		}
	}

	c.logger.Info("Sheet ingester started",
		"stream", c.config.StreamName,
		"consumer", c.config.ConsumerName,
		"spreadsheet_id", c.config.SpreadsheetID,
		"sync_interval", c.config.GetSyncInterval(),
		"sync_on_start", c.config.SyncOnStart)

	return nil
}

// consumeMessages processes incoming sync requests.
func (c *Component) consumeMessages(ctx context.Context) {
	js, err := c.natsClient.JetStream()
	if err != nil {
		c.logger.Error("Failed to get JetStream context", "error", err)
		return
	}

	// Get stream
	stream, err := js.Stream(ctx, c.config.StreamName)
	if err != nil {
		c.logger.Error("Failed to get stream", "error", err, "stream", c.config.StreamName)
		return
	}

	// Create or update durable consumer
	consumerConfig := jetstream.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		FilterSubject: events.SyncRequestSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       60 * time.Second,
		MaxDeliver:    3,
	}
	consumer, err := stream.CreateOrUpdateConsumer(ctx, consumerConfig)
	if err != nil {
		c.logger.Error("Failed to create consumer", "error", err, "stream", c.config.StreamName, "consumer", c.config.ConsumerName)
		return
	}

	c.logger.Info("Consumer connected", "stream", c.config.StreamName, "consumer", c.config.ConsumerName)

	// Consume messages
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Fetch next message with timeout
		msgs, err := consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue // Timeout, try again
		}

		for msg := range msgs.Messages() {
			select {
			case <-ctx.Done():
				// NAK the message so it can be redelivered
				_ = msg.Nak()
				return
			default:
				c.handleMessage(ctx, msg)
			}
		}
	}
}

// handleMessage processes a single sync request.
func (c *Component) handleMessage(ctx context.Context, msg jetstream.Msg) {
	c.updateLastActivity()

	req, err := events.ParsePayload[events.SyncRequest](msg.Data())
	if err != nil {
		c.logger.Warn("Failed to parse sync request", "error", err)
		c.errors.Add(1)
		// ACK unparseable messages; they will not succeed on retry.
		_ = msg.Ack()
		return
	}
	if err := req.Validate(); err != nil {
		c.logger.Warn("Invalid sync request", "error", err)
		c.errors.Add(1)
		_ = msg.Ack()
		return
	}

	c.logger.Info("Processing sync request", "run_id", req.RunID, "trigger", req.Trigger)

	run := &storage.SyncRun{
		ID:        req.RunID,
		Trigger:   req.Trigger,
		StartedAt: time.Now(),
	}

	if err := c.runSync(ctx, run); err != nil {
		if errors.Is(err, errSyncInProgress) {
			// Redeliver once the in-flight sync finishes.
			_ = msg.Nak()
			return
		}
		c.logger.Error("Sync failed", "run_id", run.ID, "error", err)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()
}

// intervalLoop triggers a sync on every tick until the context is cancelled.
func (c *Component) intervalLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run := storage.NewSyncRun(storage.TriggerInterval)
			if err := c.runSync(ctx, run); err != nil && !errors.Is(err, errSyncInProgress) {
				c.logger.Error("Interval sync failed", "run_id", run.ID, "error", err)
			}
		}
	}
}

// runSync executes one sync, records metrics, and announces the outcome.
// Overlapping syncs are rejected with errSyncInProgress.
func (c *Component) runSync(ctx context.Context, run *storage.SyncRun) error {
	if !c.syncing.CompareAndSwap(false, true) {
		return errSyncInProgress
	}
	defer c.syncing.Store(false)

	c.updateLastActivity()
	start := time.Now()

	snap, err := c.syncer.Run(ctx, run)
	metrics.SyncDuration.Observe(time.Since(start).Seconds())

	ev := &events.SyncCompleted{
		RunID:         run.ID,
		SpreadsheetID: c.config.SpreadsheetID,
		SyncedAt:      time.Now().UTC(),
	}

	if err != nil {
		c.errors.Add(1)
		metrics.SyncRuns.WithLabelValues(string(run.Trigger), "error").Inc()
		ev.Error = err.Error()
	} else {
		c.syncsCompleted.Add(1)
		metrics.SyncRuns.WithLabelValues(string(run.Trigger), "success").Inc()
		metrics.RecordSnapshot(len(snap.Transactions), len(snap.Categories), len(snap.Balances), float64(snap.SyncedAt.Unix()))
		ev.SyncedAt = snap.SyncedAt
		ev.TransactionCount = len(snap.Transactions)
		ev.CategoryCount = len(snap.Categories)
		ev.BalanceCount = len(snap.Balances)

		c.logger.Info("Snapshot synced",
			"run_id", run.ID,
			"trigger", run.Trigger,
			"transactions", len(snap.Transactions),
			"categories", len(snap.Categories),
			"balances", len(snap.Balances))
	}

	if pubErr := events.PublishSyncCompleted(ctx, c.natsClient, c.name, ev); pubErr != nil {
		c.logger.Warn("Failed to publish sync completion", "run_id", run.ID, "error", pubErr)
	}

	return err
}

// updateLastActivity safely updates the last activity timestamp.
func (c *Component) updateLastActivity() {
	c.lastActivityMu.Lock()
	c.lastActivity = time.Now()
	c.lastActivityMu.Unlock()
}

// getLastActivity safely retrieves the last activity timestamp.
func (c *Component) getLastActivity() time.Time {
	c.lastActivityMu.RLock()
	defer c.lastActivityMu.RUnlock()
	return c.lastActivity
}

// Stop gracefully stops the component within the given timeout.
func (c *Component) Stop(_ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	// Stop watcher if running
	if c.watcher != nil {
		c.watcher.Stop()
	}

	c.running = false
	c.logger.Info("Sheet ingester stopped",
		"syncs_completed", c.syncsCompleted.Load(),
		"errors", c.errors.Load())

	return nil
}

// Discoverable interface implementation

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "sheet-ingester",
		Type:        "processor",
		Description: "Google Sheets puller that builds and stores ledger snapshots",
		Version:     "0.1.0",
	}
}

// InputPorts returns configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, portDef := range c.config.Ports.Inputs {
		ports[i] = buildPort(portDef, component.DirectionInput)
	}
	return ports
}

// OutputPorts returns configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, portDef := range c.config.Ports.Outputs {
		ports[i] = buildPort(portDef, component.DirectionOutput)
	}
	return ports
}

// buildPort creates a component.Port from a PortDefinition.
func buildPort(portDef component.PortDefinition, direction component.Direction) component.Port {
	port := component.Port{
		Name:        portDef.Name,
		Direction:   direction,
		Required:    portDef.Required,
		Description: portDef.Description,
	}
	if portDef.Type == "jetstream" {
		port.Config = component.JetStreamPort{
			StreamName: portDef.StreamName,
			Subjects:   []string{portDef.Subject},
		}
	} else {
		port.Config = component.NATSPort{
			Subject: portDef.Subject,
		}
	}
	return port
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return sheetIngesterSchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: int(c.errors.Load()),
		Uptime:     time.Since(startTime),
		Status:     c.getStatusString(running),
	}
}

// getStatusString returns a status string based on running state.
func (c *Component) getStatusString(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{
		MessagesPerSecond: 0,
		BytesPerSecond:    0,
		ErrorRate:         0,
		LastActivity:      c.getLastActivity(),
	}
}
