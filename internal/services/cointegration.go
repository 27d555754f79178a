package services

import (
	"fmt"
	"math"

	"github.com/plopa1535/BF-Interestrate-DART/internal/models"
	"github.com/sirupsen/logrus"
)

// cointegrationStep is the fixed window stride in days. It is
// independent of the window length so long lookbacks keep a
// manageable number of output periods.
const cointegrationStep = 30

// CointegrationResult holds the windowed Engle-Granger results plus
// one test across the full series.
type CointegrationResult struct {
	Periods    []models.CointegrationPeriod
	Overall    models.CointegrationPeriod
	Window     int
	PeriodDays int
	StepDays   int
}

// ComputeCointegration slides a window of `window` observations in
// steps of 30 days across the level series and runs an Engle-Granger
// test per window. Windows that fail numerically are skipped with a
// warning. The overall test never fails: numerical failure degrades
// to p-value 1 / strength 0.
func ComputeCointegration(series []models.RateObservation, window, days int) (*CointegrationResult, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations, got %d", ErrInsufficientData, len(series))
	}

	periods := make([]models.CointegrationPeriod, 0)
	for start := 0; start+window <= len(series); start += cointegrationStep {
		block := series[start : start+window]
		period, err := testWindow(block)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"period_start": block[0].Date.Format("2006-01-02"),
				"period_end":   block[len(block)-1].Date.Format("2006-01-02"),
			}).WithError(err).Warn("Skipping cointegration window")
			continue
		}
		periods = append(periods, period)
	}

	overall, err := testWindow(series)
	if err != nil {
		logrus.WithError(err).Warn("Overall cointegration test failed, using fallback")
		overall = models.CointegrationPeriod{
			PeriodStart:    series[0].Date,
			PeriodEnd:      series[len(series)-1].Date,
			PeriodLabel:    periodLabel(series[0].Date, series[len(series)-1].Date),
			PValue:         1.0,
			Strength:       0.0,
			TestStatistic:  0.0,
			IsCointegrated: false,
			DataPoints:     len(series),
		}
	}

	return &CointegrationResult{
		Periods:    periods,
		Overall:    overall,
		Window:     window,
		PeriodDays: days,
		StepDays:   cointegrationStep,
	}, nil
}

func testWindow(block []models.RateObservation) (models.CointegrationPeriod, error) {
	us := make([]float64, len(block))
	kr := make([]float64, len(block))
	for i, obs := range block {
		us[i] = obs.USRate
		kr[i] = obs.KRRate
	}

	stat, pvalue, err := engleGranger(us, kr)
	if err != nil {
		return models.CointegrationPeriod{}, err
	}

	first := block[0].Date
	last := block[len(block)-1].Date
	return models.CointegrationPeriod{
		PeriodStart:    first,
		PeriodEnd:      last,
		PeriodLabel:    periodLabel(first, last),
		PValue:         roundTo(pvalue, 4),
		Strength:       roundTo(1-pvalue, 4),
		TestStatistic:  roundTo(stat, 4),
		IsCointegrated: pvalue < 0.05,
		DataPoints:     len(block),
	}, nil
}

// engleGranger runs the two-step residual-based test on the level
// series: OLS of kr on us, then an ADF regression (one augmentation
// lag, no intercept) on the residuals. The p-value comes from a
// piecewise-linear interpolation of MacKinnon critical values for a
// two-variable cointegrating regression with constant.
func engleGranger(us, kr []float64) (stat, pvalue float64, err error) {
	if len(us) < 10 || len(kr) != len(us) {
		return 0, 0, fmt.Errorf("series too short for cointegration test: %d", len(us))
	}
	if sampleVariance(us) < betaVarianceFloor || sampleVariance(kr) < betaVarianceFloor {
		return 0, 0, fmt.Errorf("insufficient variation in level series")
	}

	alpha, beta, ok := olsFit(us, kr)
	if !ok {
		return 0, 0, fmt.Errorf("cointegrating regression is degenerate")
	}

	residuals := make([]float64, len(us))
	for i := range us {
		residuals[i] = kr[i] - alpha - beta*us[i]
	}

	stat, err = adfStatistic(residuals)
	if err != nil {
		return 0, 0, err
	}
	return stat, macKinnonPValue(stat), nil
}

// adfStatistic regresses Δe_t on e_{t-1} and Δe_{t-1} (residuals are
// mean zero by construction, so no intercept) and returns the t
// statistic of the e_{t-1} coefficient.
func adfStatistic(e []float64) (float64, error) {
	n := len(e)
	if n < 5 {
		return 0, fmt.Errorf("residual series too short for ADF: %d", n)
	}

	// Observations t = 2..n-1: y = Δe_t, x1 = e_{t-1}, x2 = Δe_{t-1}.
	m := n - 2
	var s11, s12, s22, s1y, s2y float64
	for t := 2; t < n; t++ {
		y := e[t] - e[t-1]
		x1 := e[t-1]
		x2 := e[t-1] - e[t-2]
		s11 += x1 * x1
		s12 += x1 * x2
		s22 += x2 * x2
		s1y += x1 * y
		s2y += x2 * y
	}

	det := s11*s22 - s12*s12
	if math.Abs(det) < 1e-12 {
		return 0, fmt.Errorf("ADF design matrix is singular")
	}

	gamma := (s22*s1y - s12*s2y) / det
	phi := (s11*s2y - s12*s1y) / det

	var rss float64
	for t := 2; t < n; t++ {
		y := e[t] - e[t-1]
		fitted := gamma*e[t-1] + phi*(e[t-1]-e[t-2])
		diff := y - fitted
		rss += diff * diff
	}

	dof := m - 2
	if dof < 1 {
		return 0, fmt.Errorf("not enough degrees of freedom for ADF")
	}
	sigma2 := rss / float64(dof)
	seGamma := math.Sqrt(sigma2 * s22 / det)
	if seGamma == 0 || math.IsNaN(seGamma) {
		return 0, fmt.Errorf("ADF standard error is degenerate")
	}

	return gamma / seGamma, nil
}

// macKinnonTable maps ADF test statistics to approximate p-values for
// the residual-based test with two variables and a constant in the
// cointegrating regression. Intermediate statistics interpolate
// linearly; the tails clamp.
var macKinnonTable = []struct {
	stat float64
	p    float64
}{
	{-5.00, 0.0001},
	{-4.32, 0.001},
	{-3.90, 0.01},
	{-3.59, 0.025},
	{-3.34, 0.05},
	{-3.05, 0.10},
	{-2.57, 0.25},
	{-1.94, 0.50},
	{-1.00, 0.80},
	{0.00, 0.95},
}

func macKinnonPValue(stat float64) float64 {
	table := macKinnonTable
	if stat <= table[0].stat {
		return table[0].p
	}
	if stat >= table[len(table)-1].stat {
		return table[len(table)-1].p
	}
	for i := 1; i < len(table); i++ {
		if stat <= table[i].stat {
			lo, hi := table[i-1], table[i]
			frac := (stat - lo.stat) / (hi.stat - lo.stat)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return table[len(table)-1].p
}
