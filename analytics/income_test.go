package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ledgerstream/ledger"
)

func TestMonthlyIncome(t *testing.T) {
	s := testSnapshot(t)

	points := MonthlyIncome(s)
	require.Len(t, points, 5)

	assert.Equal(t, MonthPoint{Month: "2024-01", Amount: 3000}, points[0])
	assert.Equal(t, MonthPoint{Month: "2024-03", Amount: 3100}, points[2])
	// April had no paycheck but still appears.
	assert.Equal(t, MonthPoint{Month: "2024-04", Amount: 0}, points[3])
	assert.Equal(t, MonthPoint{Month: "2024-05", Amount: 3200}, points[4])
}

func TestMonthlyIncomeNoPaychecks(t *testing.T) {
	assert.Nil(t, MonthlyIncome(&ledger.Snapshot{}))
}
