package scenarios

import (
	"context"
	"fmt"

	"github.com/c360studio/ledgerstream/test/e2e/client"
	"github.com/c360studio/ledgerstream/test/e2e/config"
)

// SyncFlowScenario tests the manual sync trigger end to end: request a
// pull, wait for the snapshot to land, and verify the run record and the
// dashboard reflect it.
type SyncFlowScenario struct {
	name        string
	description string
	config      *config.Config
	api         *client.APIClient

	runID string
}

// NewSyncFlowScenario creates a new sync flow scenario.
func NewSyncFlowScenario(cfg *config.Config) *SyncFlowScenario {
	return &SyncFlowScenario{
		name:        "sync-flow",
		description: "Tests the sync request → snapshot persistence → status reporting flow",
		config:      cfg,
	}
}

// Name returns the scenario name.
func (s *SyncFlowScenario) Name() string {
	return s.name
}

// Description returns the scenario description.
func (s *SyncFlowScenario) Description() string {
	return s.description
}

// Setup prepares the scenario environment.
func (s *SyncFlowScenario) Setup(ctx context.Context) error {
	s.api = client.NewAPIClient(s.config.BaseURL)

	setupCtx, cancel := context.WithTimeout(ctx, s.config.SetupTimeout)
	defer cancel()

	if err := s.api.WaitForHealthy(setupCtx); err != nil {
		return fmt.Errorf("service not healthy: %w", err)
	}
	return nil
}

// Execute runs the sync flow scenario.
func (s *SyncFlowScenario) Execute(ctx context.Context) (*Result, error) {
	result := NewResult(s.name)
	defer result.Complete()

	runStages(ctx, result, s.config.StageTimeout, []stage{
		{name: "request-sync", fn: s.stageRequestSync},
		{name: "wait-snapshot", fn: s.stageWaitSnapshot, timeout: s.config.SyncTimeout},
		{name: "verify-run", fn: s.stageVerifyRun},
		{name: "verify-dashboard", fn: s.stageVerifyDashboard},
	})

	return result, nil
}

// Teardown cleans up after the scenario.
func (s *SyncFlowScenario) Teardown(ctx context.Context) error {
	// Nothing to clean up; snapshots are overwritten by the next sync.
	return nil
}

// stageRequestSync posts a sync request and records the run ID.
func (s *SyncFlowScenario) stageRequestSync(ctx context.Context, result *Result) error {
	resp, err := s.api.RequestSync(ctx)
	if err != nil {
		return fmt.Errorf("request sync: %w", err)
	}

	if resp.RunID == "" {
		return fmt.Errorf("sync response has no run_id")
	}
	if resp.Status != "requested" {
		return fmt.Errorf("expected status 'requested', got %q", resp.Status)
	}

	s.runID = resp.RunID
	result.SetDetail("run_id", resp.RunID)
	return nil
}

// stageWaitSnapshot waits until a snapshot with data exists.
func (s *SyncFlowScenario) stageWaitSnapshot(ctx context.Context, result *Result) error {
	status, err := s.api.WaitForSnapshot(ctx)
	if err != nil {
		return err
	}

	if status.TransactionCount == 0 {
		return fmt.Errorf("snapshot has no transactions")
	}
	if status.CategoryCount == 0 {
		return fmt.Errorf("snapshot has no categories")
	}
	if status.SyncedAt == nil {
		return fmt.Errorf("snapshot has no synced_at timestamp")
	}

	result.SetMetric("transaction_count", status.TransactionCount)
	result.SetMetric("category_count", status.CategoryCount)
	result.SetMetric("balance_count", status.BalanceCount)
	return nil
}

// stageVerifyRun waits for this scenario's run record to complete and
// checks it against the snapshot counts.
func (s *SyncFlowScenario) stageVerifyRun(ctx context.Context, result *Result) error {
	run, err := s.api.WaitForRunCompleted(ctx, s.runID)
	if err != nil {
		return err
	}

	if run.Error != "" {
		return fmt.Errorf("sync run failed: %s", run.Error)
	}
	if run.Trigger != "manual" {
		return fmt.Errorf("expected trigger 'manual', got %q", run.Trigger)
	}
	if run.TransactionCount == 0 {
		return fmt.Errorf("run record has no transaction count")
	}

	result.SetDetail("run_trigger", run.Trigger)
	result.SetMetric("run_duration_ms", run.CompletedAt.Sub(run.StartedAt).Milliseconds())
	return nil
}

// stageVerifyDashboard checks that the dashboard assembles from the
// snapshot with all sections present.
func (s *SyncFlowScenario) stageVerifyDashboard(ctx context.Context, result *Result) error {
	dash, err := s.api.Dashboard(ctx)
	if err != nil {
		return fmt.Errorf("fetch dashboard: %w", err)
	}

	if dash.SyncedAt.IsZero() {
		return fmt.Errorf("dashboard has no synced_at timestamp")
	}
	if len(dash.Sections) == 0 {
		return fmt.Errorf("dashboard has no sections")
	}

	for _, section := range dash.Sections {
		if section.Title == "" || section.Anchor == "" || section.Kind == "" {
			return fmt.Errorf("dashboard section missing title, anchor, or kind: %+v", section)
		}
		if len(section.Payload) == 0 {
			return fmt.Errorf("dashboard section %q has no payload", section.Title)
		}
	}

	result.SetMetric("section_count", len(dash.Sections))
	return nil
}
