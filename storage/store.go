// Package storage persists ledger snapshots and sync runs using NATS KV.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/ledgerstream/ledger"
)

// Trigger identifies what started a sync run.
type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerInterval Trigger = "interval"
	TriggerStartup  Trigger = "startup"
)

// Bucket names for each record type.
const (
	BucketSnapshots = "LEDGER_SNAPSHOTS"
	BucketSyncRuns  = "LEDGER_SYNC_RUNS"
)

// SnapshotKey is the fixed key the latest snapshot lives under. Older
// revisions stay available through the bucket's history window.
const SnapshotKey = "current"

// SyncRun records a single synchronization attempt against the spreadsheet.
type SyncRun struct {
	ID               string     `json:"id"`
	Trigger          Trigger    `json:"trigger"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Error            string     `json:"error,omitempty"`
	TransactionCount int        `json:"transaction_count"`
	CategoryCount    int        `json:"category_count"`
	BalanceCount     int        `json:"balance_count"`
}

// NewSyncRun creates a run record with a fresh ID and start time.
func NewSyncRun(trigger Trigger) *SyncRun {
	return &SyncRun{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
}

// Complete marks the run finished and copies the row counts from the snapshot.
func (r *SyncRun) Complete(snap *ledger.Snapshot) {
	now := time.Now()
	r.CompletedAt = &now
	r.TransactionCount = len(snap.Transactions)
	r.CategoryCount = len(snap.Categories)
	r.BalanceCount = len(snap.Balances)
}

// Fail marks the run finished with an error.
func (r *SyncRun) Fail(err error) {
	now := time.Now()
	r.CompletedAt = &now
	r.Error = err.Error()
}

// Succeeded reports whether the run finished without an error.
func (r *SyncRun) Succeeded() bool {
	return r.CompletedAt != nil && r.Error == ""
}

// Duration returns the elapsed run time, or zero while still in progress.
func (r *SyncRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Store provides snapshot and sync run persistence backed by NATS KV.
type Store struct {
	snapshots jetstream.KeyValue
	runs      jetstream.KeyValue
}

// NewStore creates a new Store with the given JetStream context.
// It creates the necessary KV buckets if they don't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	snapshots, err := getOrCreateBucket(ctx, js, BucketSnapshots)
	if err != nil {
		return nil, fmt.Errorf("create snapshots bucket: %w", err)
	}

	runs, err := getOrCreateBucket(ctx, js, BucketSyncRuns)
	if err != nil {
		return nil, fmt.Errorf("create sync runs bucket: %w", err)
	}

	return &Store{
		snapshots: snapshots,
		runs:      runs,
	}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Ledgerstream %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// SaveSnapshot stores snap under the fixed current key, replacing the
// previous snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap *ledger.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if _, err := s.snapshots.Put(ctx, SnapshotKey, data); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}

	return nil
}

// LatestSnapshot retrieves the most recently saved snapshot.
func (s *Store) LatestSnapshot(ctx context.Context) (*ledger.Snapshot, error) {
	entry, err := s.snapshots.Get(ctx, SnapshotKey)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(entry.Value(), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// RecordSyncRun stores the run under its ID, overwriting any earlier
// record so in-progress runs can be updated when they finish.
func (s *Store) RecordSyncRun(ctx context.Context, run *SyncRun) error {
	if run.ID == "" {
		return fmt.Errorf("sync run has no ID")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal sync run: %w", err)
	}

	if _, err := s.runs.Put(ctx, run.ID, data); err != nil {
		return fmt.Errorf("store sync run: %w", err)
	}

	return nil
}

// GetSyncRun retrieves a sync run by ID.
func (s *Store) GetSyncRun(ctx context.Context, id string) (*SyncRun, error) {
	entry, err := s.runs.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sync run: %w", err)
	}

	var run SyncRun
	if err := json.Unmarshal(entry.Value(), &run); err != nil {
		return nil, fmt.Errorf("unmarshal sync run: %w", err)
	}

	return &run, nil
}

// ListSyncRuns returns all recorded runs, most recent first.
func (s *Store) ListSyncRuns(ctx context.Context) ([]*SyncRun, error) {
	keys, err := s.runs.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list sync run keys: %w", err)
	}

	runs := make([]*SyncRun, 0, len(keys))
	for _, key := range keys {
		entry, err := s.runs.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var run SyncRun
		if err := json.Unmarshal(entry.Value(), &run); err != nil {
			continue
		}
		runs = append(runs, &run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	return runs, nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
