package services

import (
	"fmt"
	"time"

	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
)

// CorrelationResult holds per-block Pearson correlations plus one
// overall correlation across the whole requested series.
type CorrelationResult struct {
	Periods    []models.CorrelationPeriod
	Overall    float64
	Window     int
	PeriodDays int
}

// ComputeBlockCorrelations partitions the series into non-overlapping
// consecutive blocks of `window` observations (step = window, a
// deliberate downsampling that avoids the autocorrelation inflation a
// sliding window would produce) and computes the Pearson correlation
// of the US and KR levels per block. A trailing partial block is
// dropped. Blocks with under two points or a flat side are skipped.
func ComputeBlockCorrelations(series []models.RateObservation, window, days int) (*CorrelationResult, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations, got %d", ErrInsufficientData, len(series))
	}

	periods := make([]models.CorrelationPeriod, 0, len(series)/window)
	for start := 0; start+window <= len(series); start += window {
		block := series[start : start+window]

		us := make([]float64, len(block))
		kr := make([]float64, len(block))
		for i, obs := range block {
			us[i] = obs.USRate
			kr[i] = obs.KRRate
		}
		if len(block) < 2 || sampleStdDev(us) == 0 || sampleStdDev(kr) == 0 {
			continue
		}

		first := block[0].Date
		last := block[len(block)-1].Date
		periods = append(periods, models.CorrelationPeriod{
			PeriodStart: first,
			PeriodEnd:   last,
			PeriodLabel: periodLabel(first, last),
			Correlation: roundTo(calculateCorrelation(us, kr), 4),
			DataPoints:  len(block),
		})
	}

	us := make([]float64, len(series))
	kr := make([]float64, len(series))
	for i, obs := range series {
		us[i] = obs.USRate
		kr[i] = obs.KRRate
	}

	return &CorrelationResult{
		Periods:    periods,
		Overall:    roundTo(calculateCorrelation(us, kr), 4),
		Window:     window,
		PeriodDays: days,
	}, nil
}

func periodLabel(start, end time.Time) string {
	return start.Format("2006-01-02") + " ~ " + end.Format("2006-01-02")
}
