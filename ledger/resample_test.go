package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ledgerstream/model"
)

func TestResampleDailyBalances(t *testing.T) {
	entries := []model.BalanceEntry{
		// Same-day duplicate: the later row wins.
		{Date: day(2024, 1, 5), Account: "Checking", AccountID: "c1", Class: "Asset", Balance: 999},
		{Date: day(2024, 1, 1), Account: "Checking", AccountID: "c1", Class: "Asset", Balance: 100},
		{Date: day(2024, 1, 5), Account: "Checking", AccountID: "c1", Class: "Asset", Balance: 200},
		{Date: day(2024, 1, 3), Account: "Car Loan", AccountID: "l1", Class: "Liability", Balance: 50},
	}
	now := day(2024, 1, 7)

	daily := ResampleDailyBalances(entries, now)
	// Two accounts over 2024-01-01..07.
	require.Len(t, daily, 14)

	checking := daily[:7]
	loan := daily[7:]

	// Gap days interpolate linearly, trailing days hold the last value.
	wantChecking := []float64{100, 125, 150, 175, 200, 200, 200}
	for i, want := range wantChecking {
		assert.Equal(t, day(2024, 1, 1+i), checking[i].Date)
		assert.Equal(t, "Checking", checking[i].Account)
		assert.InDelta(t, want, checking[i].Balance, 1e-9, "checking day %d", i+1)
	}

	// Liability balances flip negative; days before the first snapshot
	// are zero but still carry account metadata.
	wantLoan := []float64{0, 0, -50, -50, -50, -50, -50}
	for i, want := range wantLoan {
		assert.Equal(t, "Car Loan", loan[i].Account)
		assert.Equal(t, "Liability", loan[i].Class)
		assert.InDelta(t, want, loan[i].Balance, 1e-9, "loan day %d", i+1)
	}
}

func TestResampleDailyBalancesEmpty(t *testing.T) {
	assert.Nil(t, ResampleDailyBalances(nil, time.Now()))
}

func TestResampleAccountsOrderedByID(t *testing.T) {
	entries := []model.BalanceEntry{
		{Date: day(2024, 1, 1), Account: "B Account", AccountID: "b", Class: "Asset", Balance: 1},
		{Date: day(2024, 1, 1), Account: "A Account", AccountID: "a", Class: "Asset", Balance: 2},
	}
	daily := ResampleDailyBalances(entries, day(2024, 1, 1))
	require.Len(t, daily, 2)
	assert.Equal(t, "a", daily[0].AccountID)
	assert.Equal(t, "b", daily[1].AccountID)
}
