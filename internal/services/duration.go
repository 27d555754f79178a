package services

import (
	"time"

	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
)

// durationClip bounds the per-quarter duration for display; the raw
// ratio is carried alongside for analytic consumers.
const durationClip = 100.0

// EstimateDuration computes the per-quarter interest-rate sensitivity
// of insurer equity: equity QoQ change divided by the quarterly rate
// change (percent converted to decimal). Filings must be
// chronologically ordered. With fewer than two filings the series is
// empty and the summary nil; this is not an error.
//
// The summary is the median of the defined clipped durations. Median
// over mean is deliberate: a single blown-up quarter (near-zero rate
// change) should not drag the headline figure.
func EstimateDuration(filings []models.QuarterlyFiling, rateByQuarter map[time.Time]float64) ([]models.DurationEstimate, *float64) {
	if len(filings) < 2 {
		return nil, nil
	}

	series := make([]models.DurationEstimate, len(filings))
	valid := make([]float64, 0, len(filings))

	for i, filing := range filings {
		series[i] = models.DurationEstimate{Quarter: filing.Quarter}
		if i == 0 {
			continue
		}

		prev := filings[i-1]
		if prev.Equity == 0 {
			continue
		}
		equityQoQ := float64(filing.Equity)/float64(prev.Equity) - 1

		rate, okNow := rateByQuarter[filing.Quarter]
		prevRate, okPrev := rateByQuarter[prev.Quarter]
		if !okNow || !okPrev {
			continue
		}
		rateChange := rate/100 - prevRate/100
		if rateChange == 0 {
			continue
		}

		raw := equityQoQ / rateChange
		clipped := raw
		wasClipped := false
		if clipped > durationClip {
			clipped = durationClip
			wasClipped = true
		} else if clipped < -durationClip {
			clipped = -durationClip
			wasClipped = true
		}

		d := roundTo(clipped, 2)
		r := roundTo(raw, 2)
		series[i].Duration = &d
		series[i].Raw = &r
		series[i].Clipped = wasClipped
		valid = append(valid, clipped)
	}

	if len(valid) == 0 {
		return series, nil
	}
	summary := roundTo(calculateMedian(valid), 2)
	return series, &summary
}
