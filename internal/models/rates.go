package models

import "time"

// RateObservation is a single daily observation of the US and Korean
// 10-year government bond yields, both in percent.
type RateObservation struct {
	Date   time.Time `json:"date"`
	USRate float64   `json:"us_rate"`
	KRRate float64   `json:"kr_rate"`
}

// Spread returns the US-KR yield spread in basis points.
func (o RateObservation) Spread() float64 {
	return (o.USRate - o.KRRate) * 100
}

// CouplingDirection classifies how tightly the Korean yield tracks the
// US yield over a rolling window.
type CouplingDirection string

const (
	DirectionCoupled   CouplingDirection = "coupled"
	DirectionNeutral   CouplingDirection = "neutral"
	DirectionDecoupled CouplingDirection = "decoupled"
)

// ClassifyBeta maps a rolling beta value onto a coupling direction.
// Negative betas fall into decoupled.
func ClassifyBeta(beta float64) CouplingDirection {
	switch {
	case beta >= 0.8:
		return DirectionCoupled
	case beta >= 0.4:
		return DirectionNeutral
	default:
		return DirectionDecoupled
	}
}

// CouplingPoint is one day of the rolling-beta series. Beta is clamped
// to [-1, 3] for chart stability; BetaRaw carries the unclamped value
// for analytic consumers.
type CouplingPoint struct {
	Date      time.Time         `json:"date"`
	Beta      float64           `json:"beta"`
	BetaRaw   float64           `json:"beta_raw"`
	Direction CouplingDirection `json:"direction"`
}

// CorrelationPeriod is the Pearson correlation of one non-overlapping
// block of daily observations.
type CorrelationPeriod struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	PeriodLabel string    `json:"period_label"`
	Correlation float64   `json:"correlation"`
	DataPoints  int       `json:"data_points"`
}

// CointegrationPeriod is the Engle-Granger test result for one window
// of the level series. Strength is 1 - p-value.
type CointegrationPeriod struct {
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	PeriodLabel    string    `json:"period_label"`
	PValue         float64   `json:"pvalue"`
	Strength       float64   `json:"strength"`
	TestStatistic  float64   `json:"test_statistic"`
	IsCointegrated bool      `json:"is_cointegrated"`
	DataPoints     int       `json:"data_points"`
}
