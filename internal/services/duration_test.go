package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
)

func quarterEnd(year, month int) time.Time {
	day := 31
	if month == 6 || month == 9 {
		day = 30
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestEstimateDuration_FewerThanTwoFilings(t *testing.T) {
	filings := []models.QuarterlyFiling{
		{Quarter: quarterEnd(2024, 3), Equity: 1_000_000},
	}

	series, summary := EstimateDuration(filings, map[time.Time]float64{})
	assert.Nil(t, series)
	assert.Nil(t, summary)
}

func TestEstimateDuration_FirstQuarterIsAlwaysNull(t *testing.T) {
	q1 := quarterEnd(2024, 3)
	q2 := quarterEnd(2024, 6)
	filings := []models.QuarterlyFiling{
		{Quarter: q1, Equity: 1_000_000},
		{Quarter: q2, Equity: 1_050_000},
	}
	rates := map[time.Time]float64{q1: 4.00, q2: 3.50}

	series, summary := EstimateDuration(filings, rates)
	require.Len(t, series, 2)
	assert.Nil(t, series[0].Duration)
	assert.Nil(t, series[0].Raw)

	// Equity +5% against a -0.5pp rate move: duration -0.05/0.005 = -10.
	require.NotNil(t, series[1].Duration)
	assert.InDelta(t, -10.0, *series[1].Duration, 1e-9)
	assert.False(t, series[1].Clipped)

	require.NotNil(t, summary)
	assert.InDelta(t, -10.0, *summary, 1e-9)
}

func TestEstimateDuration_ZeroRateChangeIsNull(t *testing.T) {
	q1 := quarterEnd(2024, 3)
	q2 := quarterEnd(2024, 6)
	filings := []models.QuarterlyFiling{
		{Quarter: q1, Equity: 1_000_000},
		{Quarter: q2, Equity: 1_200_000}, // equity moved, rate did not
	}
	rates := map[time.Time]float64{q1: 4.00, q2: 4.00}

	series, summary := EstimateDuration(filings, rates)
	require.Len(t, series, 2)
	assert.Nil(t, series[1].Duration)
	assert.Nil(t, summary)
}

func TestEstimateDuration_MissingRateIsNull(t *testing.T) {
	q1 := quarterEnd(2024, 3)
	q2 := quarterEnd(2024, 6)
	filings := []models.QuarterlyFiling{
		{Quarter: q1, Equity: 1_000_000},
		{Quarter: q2, Equity: 1_100_000},
	}
	// No rate observed for q2.
	rates := map[time.Time]float64{q1: 4.00}

	series, summary := EstimateDuration(filings, rates)
	require.Len(t, series, 2)
	assert.Nil(t, series[1].Duration)
	assert.Nil(t, summary)
}

func TestEstimateDuration_ClipsExtremeValues(t *testing.T) {
	q1 := quarterEnd(2024, 3)
	q2 := quarterEnd(2024, 6)
	filings := []models.QuarterlyFiling{
		{Quarter: q1, Equity: 1_000_000},
		{Quarter: q2, Equity: 1_500_000},
	}
	// +50% equity against a 1bp move: raw ratio 0.5/0.0001 = 5000.
	rates := map[time.Time]float64{q1: 4.00, q2: 4.01}

	series, summary := EstimateDuration(filings, rates)
	require.Len(t, series, 2)
	require.NotNil(t, series[1].Duration)
	assert.InDelta(t, 100.0, *series[1].Duration, 1e-9)
	assert.True(t, series[1].Clipped)
	require.NotNil(t, series[1].Raw)
	assert.InDelta(t, 5000.0, *series[1].Raw, 0.5)

	require.NotNil(t, summary)
	assert.InDelta(t, 100.0, *summary, 1e-9)
}

func TestEstimateDuration_MedianSummaryResistsOutlier(t *testing.T) {
	quarters := []time.Time{
		quarterEnd(2023, 3), quarterEnd(2023, 6), quarterEnd(2023, 9),
		quarterEnd(2023, 12), quarterEnd(2024, 3),
	}

	// Rates fall 0.10pp each quarter; equity rises 1% except for one
	// blown-up quarter at +9.9%.
	filings := []models.QuarterlyFiling{
		{Quarter: quarters[0], Equity: 1_000_000},
		{Quarter: quarters[1], Equity: 1_010_000},
		{Quarter: quarters[2], Equity: 1_020_100},
		{Quarter: quarters[3], Equity: 1_121_090}, // outlier quarter
		{Quarter: quarters[4], Equity: 1_132_301},
	}
	rates := map[time.Time]float64{
		quarters[0]: 4.00,
		quarters[1]: 3.90,
		quarters[2]: 3.80,
		quarters[3]: 3.70,
		quarters[4]: 3.60,
	}

	series, summary := EstimateDuration(filings, rates)
	require.Len(t, series, 5)
	require.NotNil(t, summary)

	// Three clean quarters sit near -10; the outlier near -99. The
	// median stays with the cluster.
	assert.InDelta(t, -10.0, *summary, 0.1)

	valid := make([]float64, 0, 4)
	for _, e := range series[1:] {
		require.NotNil(t, e.Duration)
		valid = append(valid, *e.Duration)
	}
	mean := calculateMean(valid)
	assert.Less(t, mean, -25.0, "the outlier should drag the mean far from the cluster")
	assert.Greater(t, *summary, mean)
}
