package services

import (
	"fmt"

	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
)

const (
	// betaVarianceFloor guards the Cov/Var division against a flat US
	// series inside a window.
	betaVarianceFloor = 1e-10

	// Display clamp for rolling beta. Purely a chart-stability bound,
	// not a statistical property; the raw value is carried alongside.
	betaClampMin = -1.0
	betaClampMax = 3.0
)

// CouplingResult is the rolling-beta series over the reporting window
// plus its summary.
type CouplingResult struct {
	Points      []models.CouplingPoint
	OverallBeta float64
	Direction   models.CouplingDirection
	Window      int
	PeriodDays  int
}

// ComputeCoupling computes the day-by-day rolling beta of KR yield
// changes against US yield changes, both in basis points. The series
// is expected to lead the reporting window by at least `window`
// observations of warm-up; only the most recent `days` defined points
// are returned.
func ComputeCoupling(series []models.RateObservation, window, days int) (*CouplingResult, error) {
	if len(series) < window+2 {
		return nil, fmt.Errorf("%w: need at least %d observations, got %d", ErrInsufficientData, window+2, len(series))
	}

	n := len(series)

	// Day-over-day changes in basis points. Index 0 has no prior day.
	diffUS := make([]float64, n)
	diffKR := make([]float64, n)
	hasDiff := make([]bool, n)
	for i := 1; i < n; i++ {
		diffUS[i] = (series[i].USRate - series[i-1].USRate) * 100
		diffKR[i] = (series[i].KRRate - series[i-1].KRRate) * 100
		hasDiff[i] = true
	}

	minValid := (window + 1) / 2

	points := make([]models.CouplingPoint, 0, n-window)
	for i := window; i < n; i++ {
		us := make([]float64, 0, window)
		kr := make([]float64, 0, window)
		for j := i - window + 1; j <= i; j++ {
			if !hasDiff[j] {
				continue
			}
			us = append(us, diffUS[j])
			kr = append(kr, diffKR[j])
		}
		if len(us) < minValid {
			continue
		}

		variance := sampleVariance(us)
		if variance < betaVarianceFloor {
			continue
		}
		raw := sampleCovariance(us, kr) / variance
		beta := clampBeta(raw)

		points = append(points, models.CouplingPoint{
			Date:      series[i].Date,
			Beta:      roundTo(beta, 4),
			BetaRaw:   roundTo(raw, 4),
			Direction: models.ClassifyBeta(beta),
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no window produced a defined beta", ErrInsufficientData)
	}

	// Warm-up points beyond the reporting horizon are discarded.
	if len(points) > days {
		points = points[len(points)-days:]
	}

	betas := make([]float64, len(points))
	for i, p := range points {
		betas[i] = p.Beta
	}
	overall := roundTo(calculateMean(betas), 4)

	return &CouplingResult{
		Points:      points,
		OverallBeta: overall,
		Direction:   models.ClassifyBeta(overall),
		Window:      window,
		PeriodDays:  days,
	}, nil
}

func clampBeta(beta float64) float64 {
	if beta > betaClampMax {
		return betaClampMax
	}
	if beta < betaClampMin {
		return betaClampMin
	}
	return beta
}
