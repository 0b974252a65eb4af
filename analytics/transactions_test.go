package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryTransactions(t *testing.T) {
	s := testSnapshot(t)

	details := CategoryTransactions(s, "Dining")
	require.Len(t, details, 7)

	// Sorted by amount ascending: biggest spend first, refund last.
	assert.Equal(t, "Diner", details[0].Description)
	assert.Equal(t, -80.0, details[0].Amount)
	assert.Equal(t, "Refund", details[6].Description)
	assert.Equal(t, 10.0, details[6].Amount)

	assert.Empty(t, CategoryTransactions(s, "No Such Category"))
}

func TestCategoryHistogram(t *testing.T) {
	s := testSnapshot(t)

	bins := CategoryHistogram(s, "Dining", 2)
	require.Len(t, bins, 2)

	// Amounts span -80..10, so the split lands at -35.
	assert.InDelta(t, -80, bins[0].Low, 1e-9)
	assert.InDelta(t, -35, bins[0].High, 1e-9)
	assert.Equal(t, 4, bins[0].Count) // -80, -60, -50, -40

	assert.InDelta(t, 10, bins[1].High, 1e-9)
	assert.Equal(t, 3, bins[1].Count) // -30, -20, 10
}

func TestCategoryHistogramSingleValue(t *testing.T) {
	s := testSnapshot(t)

	// Rent is four identical payments.
	bins := CategoryHistogram(s, "Rent", 10)
	require.Len(t, bins, 1)
	assert.Equal(t, -1000.0, bins[0].Low)
	assert.Equal(t, -1000.0, bins[0].High)
	assert.Equal(t, 4, bins[0].Count)
}

func TestCategoryHistogramEmpty(t *testing.T) {
	s := testSnapshot(t)
	assert.Nil(t, CategoryHistogram(s, "No Such Category", 30))
}

func TestCategoryHistogramDefaultBins(t *testing.T) {
	s := testSnapshot(t)
	bins := CategoryHistogram(s, "Dining", 0)
	assert.Len(t, bins, defaultHistogramBins)
}
