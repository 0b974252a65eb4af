package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlySpendingByCategory(t *testing.T) {
	s := testSnapshot(t)

	series := MonthlySpendingByCategory(s, testNow, SpendingOptions{})
	require.Len(t, series, 4)

	// Stacking order is total spend, descending.
	assert.Equal(t, "Rent", series[0].Category)
	assert.Equal(t, "Dining", series[1].Category)
	assert.Equal(t, "Shopping", series[2].Category)
	assert.Equal(t, "Groceries", series[3].Category)

	dining := series[1]
	require.Len(t, dining.Points, 6)
	assert.Equal(t, MonthPoint{Month: "2024-01", Amount: 40}, dining.Points[0])
	// May nets the refund.
	assert.Equal(t, MonthPoint{Month: "2024-05", Amount: 40}, dining.Points[4])
	assert.Equal(t, MonthPoint{Month: "2024-06", Amount: 30}, dining.Points[5])
	assert.InDelta(t, 270, dining.Total, 1e-9)
}

func TestMonthlySpendingByCategoryExclude(t *testing.T) {
	s := testSnapshot(t)

	series := MonthlySpendingByCategory(s, testNow, SpendingOptions{Exclude: []string{"Rent"}})
	require.Len(t, series, 3)
	assert.Equal(t, "Dining", series[0].Category)
}

func TestMonthlySpendingByCategoryMovingAverage(t *testing.T) {
	s := testSnapshot(t)

	series := MonthlySpendingByCategory(s, testNow, SpendingOptions{MovingAvgMonths: 3})

	// June is the in-progress month at testNow, so it drops out before
	// averaging.
	dining := findSeries(t, series, "Dining")
	require.Len(t, dining.Points, 5)
	assert.InDelta(t, 40, dining.Points[0].Amount, 1e-9)         // Jan
	assert.InDelta(t, 50, dining.Points[1].Amount, 1e-9)         // (40+60)/2
	assert.InDelta(t, 60, dining.Points[2].Amount, 1e-9)         // (40+60+80)/3
	assert.InDelta(t, 160.0/3, dining.Points[3].Amount, 1e-9)    // (60+80+20)/3
	assert.InDelta(t, 140.0/3, dining.Points[4].Amount, 1e-9)    // (80+20+40)/3

	// The window slides over a category's own months, so Shopping's gap
	// from January to March still averages two observations.
	shopping := findSeries(t, series, "Shopping")
	require.Len(t, shopping.Points, 2)
	assert.Equal(t, "2024-01", shopping.Points[0].Month)
	assert.InDelta(t, 25, shopping.Points[0].Amount, 1e-9)
	assert.Equal(t, "2024-03", shopping.Points[1].Month)
	assert.InDelta(t, 75, shopping.Points[1].Amount, 1e-9) // (25+125)/2
}

func TestMonthlySpendingByCategoryMovingAverageKeepsClosedMonths(t *testing.T) {
	s := testSnapshot(t)

	// A month later June is closed and stays in the average.
	later := day(2024, 7, 15)
	series := MonthlySpendingByCategory(s, later, SpendingOptions{MovingAvgMonths: 3})

	dining := findSeries(t, series, "Dining")
	require.Len(t, dining.Points, 6)
	assert.Equal(t, "2024-06", dining.Points[5].Month)
	assert.InDelta(t, 30, dining.Points[5].Amount, 1e-9) // (20+40+30)/3
}

func TestTotalMonthlySpending(t *testing.T) {
	s := testSnapshot(t)

	total := TotalMonthlySpending(s, testNow, TotalSpendingOptions{Windows: []int{3, 12}})
	require.Len(t, total.Months, 6)

	want := []MonthPoint{
		{Month: "2024-01", Amount: 1125},
		{Month: "2024-02", Amount: 1100},
		{Month: "2024-03", Amount: 1205},
		{Month: "2024-04", Amount: 1120},
		{Month: "2024-05", Amount: 40},
		{Month: "2024-06", Amount: 105},
	}
	for i, w := range want {
		assert.Equal(t, w.Month, total.Months[i].Month)
		assert.InDelta(t, w.Amount, total.Months[i].Amount, 1e-9)
	}

	require.Len(t, total.MovingAverages, 2)
	ma3 := total.MovingAverages[0]
	assert.Equal(t, 3, ma3.Window)
	// June is in progress, so the average runs over Jan..May and only
	// starts once three months exist.
	require.Len(t, ma3.Points, 3)
	assert.Equal(t, "2024-03", ma3.Points[0].Month)
	assert.InDelta(t, 3430.0/3, ma3.Points[0].Amount, 1e-9)
	assert.InDelta(t, 3425.0/3, ma3.Points[1].Amount, 1e-9)
	assert.InDelta(t, 2365.0/3, ma3.Points[2].Amount, 1e-9)

	// Five closed months cannot fill a twelve-month window.
	assert.Empty(t, total.MovingAverages[1].Points)
}

func TestTotalMonthlySpendingExclude(t *testing.T) {
	s := testSnapshot(t)

	total := TotalMonthlySpending(s, testNow, TotalSpendingOptions{Exclude: []string{"Rent"}})
	assert.InDelta(t, 125, total.Months[0].Amount, 1e-9) // Jan minus rent
}

func TestSpendingBySubcategory(t *testing.T) {
	s := testSnapshot(t)

	series := SpendingBySubcategory(s)
	require.Len(t, series, 4)
	// Alphabetical.
	assert.Equal(t, "Dining", series[0].Category)
	assert.Equal(t, "Groceries", series[1].Category)
	assert.Equal(t, "Rent", series[2].Category)
	assert.Equal(t, "Shopping", series[3].Category)

	groceries := series[1]
	require.Len(t, groceries.Points, 3)
	assert.Equal(t, "2024-04", groceries.Points[2].Month)
	assert.InDelta(t, 100, groceries.Points[2].Amount, 1e-9)
}

func TestSingleCategoryMonthly(t *testing.T) {
	s := testSnapshot(t)

	// Raw signs survive: spending months are negative.
	points := SingleCategoryMonthly(s, "Shopping")
	require.Len(t, points, 3)
	assert.Equal(t, MonthPoint{Month: "2024-01", Amount: -25}, points[0])
	assert.Equal(t, MonthPoint{Month: "2024-03", Amount: -125}, points[1])
	assert.Equal(t, MonthPoint{Month: "2024-06", Amount: -75}, points[2])

	assert.Empty(t, SingleCategoryMonthly(s, "No Such Category"))
}

func TestTrailingMean(t *testing.T) {
	got := trailingMean([]float64{10, 20, 30, 40}, 3)
	want := []float64{10, 15, 20, 30}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "index %d", i)
	}
}
