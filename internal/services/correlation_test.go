package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBlockCorrelations_TooFewObservations(t *testing.T) {
	series := makeSeries(t, []float64{4.00}, []float64{3.50})

	_, err := ComputeBlockCorrelations(series, 30, 180)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeBlockCorrelations_NonOverlappingBlocks(t *testing.T) {
	// 25 observations with window 10: exactly two full blocks, the
	// trailing 5 observations are dropped.
	n := 25
	us := make([]float64, n)
	kr := make([]float64, n)
	for i := range us {
		us[i] = 4.00 + float64(i)*0.01
		kr[i] = 3.50 + float64(i)*0.01
	}
	series := makeSeries(t, us, kr)

	result, err := ComputeBlockCorrelations(series, 10, 25)
	require.NoError(t, err)
	require.Len(t, result.Periods, 2)

	assert.Equal(t, series[0].Date, result.Periods[0].PeriodStart)
	assert.Equal(t, series[9].Date, result.Periods[0].PeriodEnd)
	assert.Equal(t, series[10].Date, result.Periods[1].PeriodStart)
	assert.Equal(t, series[19].Date, result.Periods[1].PeriodEnd)
	assert.Equal(t, 10, result.Periods[0].DataPoints)

	// Both series are exact linear ramps.
	assert.InDelta(t, 1.0, result.Periods[0].Correlation, 1e-9)
	assert.InDelta(t, 1.0, result.Periods[1].Correlation, 1e-9)
	assert.InDelta(t, 1.0, result.Overall, 1e-9)
}

func TestComputeBlockCorrelations_BlockCountIsFloorOfNOverWindow(t *testing.T) {
	for _, n := range []int{30, 45, 59, 60, 61} {
		us := make([]float64, n)
		kr := make([]float64, n)
		for i := range us {
			us[i] = 4.00 + float64(i%7)*0.01
			kr[i] = 3.50 + float64((i+3)%5)*0.01
		}
		series := makeSeries(t, us, kr)

		result, err := ComputeBlockCorrelations(series, 30, n)
		require.NoError(t, err, "n=%d", n)
		assert.Len(t, result.Periods, n/30, "n=%d", n)
	}
}

func TestComputeBlockCorrelations_SkipsFlatBlocks(t *testing.T) {
	// First block has a flat KR side, second block varies on both
	// sides. Only the second produces a correlation.
	us := []float64{4.00, 4.01, 4.02, 4.03, 4.04, 4.05, 4.06, 4.07}
	kr := []float64{3.50, 3.50, 3.50, 3.50, 3.52, 3.54, 3.51, 3.55}
	series := makeSeries(t, us, kr)

	result, err := ComputeBlockCorrelations(series, 4, 8)
	require.NoError(t, err)
	require.Len(t, result.Periods, 1)
	assert.Equal(t, series[4].Date, result.Periods[0].PeriodStart)
}

func TestComputeBlockCorrelations_PeriodLabelFormat(t *testing.T) {
	us := []float64{4.00, 4.01, 4.02, 4.04}
	kr := []float64{3.50, 3.52, 3.51, 3.55}
	series := makeSeries(t, us, kr)

	result, err := ComputeBlockCorrelations(series, 4, 4)
	require.NoError(t, err)
	require.Len(t, result.Periods, 1)
	assert.Equal(t, "2025-01-01 ~ 2025-01-04", result.Periods[0].PeriodLabel)
}

func TestComputeBlockCorrelations_PerfectNegativeBlock(t *testing.T) {
	us := []float64{4.00, 4.01, 4.02, 4.03, 4.04}
	kr := []float64{3.54, 3.53, 3.52, 3.51, 3.50}
	series := makeSeries(t, us, kr)

	result, err := ComputeBlockCorrelations(series, 5, 5)
	require.NoError(t, err)
	require.Len(t, result.Periods, 1)
	assert.InDelta(t, -1.0, result.Periods[0].Correlation, 1e-9)
	assert.InDelta(t, -1.0, result.Overall, 1e-9)
}
