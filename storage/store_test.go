package storage

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/c360studio/ledgerstream/ledger"
	"github.com/c360studio/ledgerstream/model"
)

func TestNewSyncRun(t *testing.T) {
	t.Run("generates ID and start time", func(t *testing.T) {
		run := NewSyncRun(TriggerManual)
		if run.ID == "" {
			t.Error("expected non-empty ID")
		}
		if run.Trigger != TriggerManual {
			t.Errorf("expected trigger %s, got %s", TriggerManual, run.Trigger)
		}
		if run.StartedAt.IsZero() {
			t.Error("expected StartedAt to be set")
		}
		if run.CompletedAt != nil {
			t.Error("expected CompletedAt to be nil for new run")
		}
	})

	t.Run("IDs are unique", func(t *testing.T) {
		a := NewSyncRun(TriggerInterval)
		b := NewSyncRun(TriggerInterval)
		if a.ID == b.ID {
			t.Errorf("expected distinct IDs, both %s", a.ID)
		}
	})
}

func TestSyncRunComplete(t *testing.T) {
	snap := &ledger.Snapshot{
		Transactions: make([]model.Transaction, 3),
		Categories:   make([]model.CategoryInfo, 2),
		Balances:     make([]model.BalanceEntry, 5),
	}

	run := NewSyncRun(TriggerStartup)
	run.Complete(snap)

	if run.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be set")
	}
	if !run.Succeeded() {
		t.Error("expected completed run to report success")
	}
	if run.TransactionCount != 3 {
		t.Errorf("expected 3 transactions, got %d", run.TransactionCount)
	}
	if run.CategoryCount != 2 {
		t.Errorf("expected 2 categories, got %d", run.CategoryCount)
	}
	if run.BalanceCount != 5 {
		t.Errorf("expected 5 balances, got %d", run.BalanceCount)
	}
}

func TestSyncRunFail(t *testing.T) {
	run := NewSyncRun(TriggerManual)
	run.Fail(errors.New("fetch transactions: boom"))

	if run.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be set")
	}
	if run.Succeeded() {
		t.Error("expected failed run to not report success")
	}
	if run.Error != "fetch transactions: boom" {
		t.Errorf("unexpected error: %s", run.Error)
	}
}

func TestSyncRunDuration(t *testing.T) {
	t.Run("zero while in progress", func(t *testing.T) {
		run := NewSyncRun(TriggerManual)
		if d := run.Duration(); d != 0 {
			t.Errorf("expected zero duration, got %v", d)
		}
	})

	t.Run("elapsed once complete", func(t *testing.T) {
		started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
		completed := started.Add(2 * time.Second)
		run := &SyncRun{StartedAt: started, CompletedAt: &completed}
		if d := run.Duration(); d != 2*time.Second {
			t.Errorf("expected 2s, got %v", d)
		}
	})
}

func TestSyncRunJSON(t *testing.T) {
	t.Run("in-progress run omits completion fields", func(t *testing.T) {
		run := NewSyncRun(TriggerInterval)
		data, err := json.Marshal(run)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(string(data), "completed_at") {
			t.Errorf("expected no completed_at in %s", data)
		}
		if strings.Contains(string(data), `"error"`) {
			t.Errorf("expected no error field in %s", data)
		}
	})
}

func TestTriggers(t *testing.T) {
	t.Run("valid trigger values", func(t *testing.T) {
		triggers := []Trigger{
			TriggerManual,
			TriggerInterval,
			TriggerStartup,
		}

		for _, tr := range triggers {
			if tr == "" {
				t.Errorf("empty trigger value")
			}
		}
	})
}

func TestBucketNames(t *testing.T) {
	t.Run("bucket names are set", func(t *testing.T) {
		if BucketSnapshots != "LEDGER_SNAPSHOTS" {
			t.Errorf("unexpected snapshots bucket: %s", BucketSnapshots)
		}
		if BucketSyncRuns != "LEDGER_SYNC_RUNS" {
			t.Errorf("unexpected sync runs bucket: %s", BucketSyncRuns)
		}
		if SnapshotKey != "current" {
			t.Errorf("unexpected snapshot key: %s", SnapshotKey)
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(errors.New("nats: key not found")) {
		t.Error("expected key not found error to match")
	}
	if isNotFound(errors.New("connection refused")) {
		t.Error("expected unrelated error to not match")
	}
	if isNotFound(nil) {
		t.Error("expected nil to not match")
	}
}
