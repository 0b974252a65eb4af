package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardSectionOrder(t *testing.T) {
	s := testSnapshot(t)

	sections := Dashboard(s, testNow, DashboardOptions{})
	require.Len(t, sections, 8)

	wantTitles := []string{
		"Net worth over time",
		"Monthly Spending by Category",
		"Monthly Spending",
		"Monthly Comparative Spending",
		"Histogram of amount per category",
		"Spending by Subcategory",
		"Monthly Income",
		"Total Spending Pie Chart",
	}
	for i, want := range wantTitles {
		assert.Equal(t, want, sections[i].Title, "section %d", i)
	}

	assert.Equal(t, "net-worth-over-time", sections[0].Anchor)
	assert.Equal(t, "total-spending-pie-chart", sections[7].Anchor)
	assert.Equal(t, "comparative-spending", sections[3].Kind)
}

func TestDashboardDefaults(t *testing.T) {
	s := testSnapshot(t)

	sections := Dashboard(s, testNow, DashboardOptions{})

	// Rent exists in the fixture, so the spending sections exclude it by
	// default.
	byCategory, ok := sections[1].Payload.([]CategorySeries)
	require.True(t, ok)
	for _, cs := range byCategory {
		assert.NotEqual(t, "Rent", cs.Category)
	}

	// Shopping exists, so it drives the histogram section.
	histogram, ok := sections[4].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Shopping", histogram["category"])

	total, ok := sections[2].Payload.(TotalSpending)
	require.True(t, ok)
	require.Len(t, total.MovingAverages, 3)
	assert.Equal(t, 3, total.MovingAverages[0].Window)
	assert.Equal(t, 6, total.MovingAverages[1].Window)
	assert.Equal(t, 12, total.MovingAverages[2].Window)
}

func TestDashboardOverrides(t *testing.T) {
	s := testSnapshot(t)

	sections := Dashboard(s, testNow, DashboardOptions{
		Exclude:           []string{},
		ComparativeMonths: 1,
		Category:          "Dining",
	})

	// An explicit empty exclude list keeps Rent.
	byCategory := sections[1].Payload.([]CategorySeries)
	assert.Equal(t, "Rent", byCategory[0].Category)

	histogram := sections[4].Payload.(map[string]any)
	assert.Equal(t, "Dining", histogram["category"])

	comparative := sections[3].Payload.([]ComparativeMonth)
	require.Len(t, comparative, 2) // cutoff 2024-05-05: May and June
}
