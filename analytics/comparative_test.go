package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ledgerstream/ledger"
)

func TestComparativeSpending(t *testing.T) {
	s := testSnapshot(t)

	months := ComparativeSpending(s, 3)
	require.Len(t, months, 4)

	// Latest transaction is 2024-06-05, so the cutoff is 2024-03-05 and
	// March comes back clipped.
	march := months[0]
	assert.Equal(t, "3 months ago, 2024-03", march.Label)
	assert.False(t, march.IsCurrent)
	require.Len(t, march.Points, 3)
	// The March 1 credit-card payment predates the cutoff but still
	// feeds the running total.
	assert.Equal(t, 10, march.Points[0].Day)
	assert.InDelta(t, 1200, march.Points[0].Amount, 1e-9)
	assert.InDelta(t, 1405, march.Points[2].Amount, 1e-9)

	april := months[1]
	assert.Equal(t, "2 months ago, 2024-04", april.Label)
	require.Len(t, april.Points, 3)
	assert.InDelta(t, 1120, april.Points[2].Amount, 1e-9)

	// The May refund pulls the running total back down.
	may := months[2]
	require.Len(t, may.Points, 2)
	assert.InDelta(t, 50, may.Points[0].Amount, 1e-9)
	assert.InDelta(t, 40, may.Points[1].Amount, 1e-9)

	june := months[3]
	assert.Equal(t, "This Month, 2024-06", june.Label)
	assert.True(t, june.IsCurrent)
	require.Len(t, june.Points, 2)
	assert.Equal(t, DayPoint{Day: 1, Amount: 75}, june.Points[0])
	assert.Equal(t, DayPoint{Day: 5, Amount: 105}, june.Points[1])
}

func TestComparativeSpendingEmpty(t *testing.T) {
	assert.Nil(t, ComparativeSpending(&ledger.Snapshot{}, 3))
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name   string
		in     time.Time
		months int
		want   time.Time
	}{
		{"plain", day(2024, 6, 5), -3, day(2024, 3, 5)},
		{"clamp to feb", day(2024, 3, 31), -1, day(2024, 2, 29)},
		{"clamp to feb non-leap", day(2023, 3, 31), -1, day(2023, 2, 28)},
		{"year boundary", day(2024, 1, 15), -2, day(2023, 11, 15)},
		{"forward", day(2024, 1, 31), 1, day(2024, 2, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addMonthsClamped(tt.in, tt.months)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}
