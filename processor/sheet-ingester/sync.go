package sheetingester

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/ledgerstream/ledger"
	"github.com/c360studio/ledgerstream/sheets"
	"github.com/c360studio/ledgerstream/storage"
)

// TableFetcher reads one named range from the spreadsheet.
type TableFetcher interface {
	FetchTable(ctx context.Context, rangeName string) (*sheets.Table, error)
}

// SnapshotStore persists snapshots and sync run records.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *ledger.Snapshot) error
	RecordSyncRun(ctx context.Context, run *storage.SyncRun) error
}

// Syncer pulls the three sheet ranges and persists a fresh snapshot.
type Syncer struct {
	fetcher       TableFetcher
	store         SnapshotStore
	spreadsheetID string
	transactions  string
	categories    string
	balances      string
	fetchTimeout  time.Duration
	logger        *slog.Logger
}

// NewSyncer creates a syncer from the component configuration.
func NewSyncer(fetcher TableFetcher, store SnapshotStore, config Config, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		fetcher:       fetcher,
		store:         store,
		spreadsheetID: config.SpreadsheetID,
		transactions:  config.TransactionsRange,
		categories:    config.CategoriesRange,
		balances:      config.BalancesRange,
		fetchTimeout:  config.GetFetchTimeout(),
		logger:        logger,
	}
}

// Run executes one sync attempt. The run record is persisted before the
// fetch starts and again with the outcome, so in-progress runs are
// visible to status queries.
func (s *Syncer) Run(ctx context.Context, run *storage.SyncRun) (*ledger.Snapshot, error) {
	if err := s.store.RecordSyncRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record sync run: %w", err)
	}

	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		run.Fail(err)
		if recErr := s.store.RecordSyncRun(ctx, run); recErr != nil {
			s.logger.Warn("Failed to record failed sync run", "run_id", run.ID, "error", recErr)
		}
		return nil, err
	}

	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		err = fmt.Errorf("save snapshot: %w", err)
		run.Fail(err)
		if recErr := s.store.RecordSyncRun(ctx, run); recErr != nil {
			s.logger.Warn("Failed to record failed sync run", "run_id", run.ID, "error", recErr)
		}
		return nil, err
	}

	run.Complete(snap)
	if err := s.store.RecordSyncRun(ctx, run); err != nil {
		// The snapshot is already saved, so the sync itself succeeded.
		s.logger.Warn("Failed to record completed sync run", "run_id", run.ID, "error", err)
	}

	return snap, nil
}

// buildSnapshot fetches the three ranges and assembles a snapshot.
func (s *Syncer) buildSnapshot(ctx context.Context) (*ledger.Snapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	catTbl, err := s.fetcher.FetchTable(fetchCtx, s.categories)
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	categories, err := ledger.BuildCategories(catTbl)
	if err != nil {
		return nil, fmt.Errorf("build categories: %w", err)
	}

	txTbl, err := s.fetcher.FetchTable(fetchCtx, s.transactions)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	transactions, err := ledger.BuildTransactions(txTbl, categories)
	if err != nil {
		return nil, fmt.Errorf("build transactions: %w", err)
	}

	balTbl, err := s.fetcher.FetchTable(fetchCtx, s.balances)
	if err != nil {
		return nil, fmt.Errorf("fetch balances: %w", err)
	}
	balances, err := ledger.BuildBalances(balTbl)
	if err != nil {
		return nil, fmt.Errorf("build balances: %w", err)
	}

	return &ledger.Snapshot{
		SpreadsheetID: s.spreadsheetID,
		SyncedAt:      time.Now().UTC(),
		Transactions:  transactions,
		Categories:    categories,
		Balances:      balances,
	}, nil
}
