package sheetingester

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ledgerstream/ledger"
	"github.com/c360studio/ledgerstream/sheets"
	"github.com/c360studio/ledgerstream/storage"
)

// stubFetcher serves fixed tables by range name.
type stubFetcher struct {
	tables map[string]*sheets.Table
	err    error
}

func (f *stubFetcher) FetchTable(_ context.Context, rangeName string) (*sheets.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	tbl, ok := f.tables[rangeName]
	if !ok {
		return nil, errors.New("unknown range: " + rangeName)
	}
	return tbl, nil
}

// stubStore records what the syncer persists.
type stubStore struct {
	snapshots []*ledger.Snapshot
	runs      []storage.SyncRun
	saveErr   error
}

func (s *stubStore) SaveSnapshot(_ context.Context, snap *ledger.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *stubStore) RecordSyncRun(_ context.Context, run *storage.SyncRun) error {
	s.runs = append(s.runs, *run)
	return nil
}

func fixtureTables() map[string]*sheets.Table {
	return map[string]*sheets.Table{
		"Categories": sheets.FromRows(
			[]string{"Category", "Group", "Type"},
			[][]string{
				{"Dining", "Living", "Expense"},
				{"Paycheck", "Income", "Income"},
			},
		),
		"Transactions": sheets.FromRows(
			[]string{"Date", "Description", "Category", "Amount"},
			[][]string{
				{"2024-06-01", "Diner", "Dining", "-$25.00"},
				{"2024-06-02", "Employer", "Paycheck", "$3,000.00"},
			},
		),
		"Balance History": sheets.FromRows(
			[]string{"Date", "Account", "Account ID", "Class", "Balance"},
			[][]string{
				{"2024-06-01", "Checking", "c1", "Asset", "$1,000.00"},
			},
		),
	}
}

func testSyncer(fetcher TableFetcher, store SnapshotStore) *Syncer {
	cfg := validConfig()
	return NewSyncer(fetcher, store, cfg, nil)
}

func TestSyncerRun(t *testing.T) {
	store := &stubStore{}
	syncer := testSyncer(&stubFetcher{tables: fixtureTables()}, store)

	run := storage.NewSyncRun(storage.TriggerManual)
	snap, err := syncer.Run(context.Background(), run)
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "sheet-123", snap.SpreadsheetID)
	assert.Len(t, snap.Transactions, 2)
	assert.Len(t, snap.Categories, 2)
	assert.Len(t, snap.Balances, 1)
	assert.False(t, snap.SyncedAt.IsZero())

	// Group and type come from the categories sheet
	assert.Equal(t, "Living", snap.Transactions[0].Group)
	assert.Equal(t, -25.0, snap.Transactions[0].Amount)

	require.Len(t, store.snapshots, 1)

	// Run recorded twice: in progress, then completed
	require.Len(t, store.runs, 2)
	assert.Nil(t, store.runs[0].CompletedAt)
	require.NotNil(t, store.runs[1].CompletedAt)
	assert.True(t, store.runs[1].Succeeded())
	assert.Equal(t, 2, store.runs[1].TransactionCount)
	assert.Equal(t, 2, store.runs[1].CategoryCount)
	assert.Equal(t, 1, store.runs[1].BalanceCount)
}

func TestSyncerRunFetchFails(t *testing.T) {
	store := &stubStore{}
	syncer := testSyncer(&stubFetcher{err: errors.New("boom")}, store)

	run := storage.NewSyncRun(storage.TriggerInterval)
	snap, err := syncer.Run(context.Background(), run)
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Contains(t, err.Error(), "fetch categories")

	assert.Empty(t, store.snapshots)

	// Failure is recorded on the run
	require.Len(t, store.runs, 2)
	failed := store.runs[1]
	require.NotNil(t, failed.CompletedAt)
	assert.False(t, failed.Succeeded())
	assert.Contains(t, failed.Error, "boom")
}

func TestSyncerRunSaveFails(t *testing.T) {
	store := &stubStore{saveErr: errors.New("kv down")}
	syncer := testSyncer(&stubFetcher{tables: fixtureTables()}, store)

	run := storage.NewSyncRun(storage.TriggerManual)
	_, err := syncer.Run(context.Background(), run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save snapshot")

	require.Len(t, store.runs, 2)
	assert.Contains(t, store.runs[1].Error, "kv down")
}

func TestSyncerRunBadSheetData(t *testing.T) {
	tables := fixtureTables()
	tables["Transactions"] = sheets.FromRows(
		[]string{"Date", "Description", "Category", "Amount"},
		[][]string{
			{"not-a-date", "Diner", "Dining", "-$25.00"},
		},
	)

	store := &stubStore{}
	syncer := testSyncer(&stubFetcher{tables: tables}, store)

	run := storage.NewSyncRun(storage.TriggerManual)
	_, err := syncer.Run(context.Background(), run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build transactions")
	assert.Empty(t, store.snapshots)
}
