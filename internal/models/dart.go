package models

import "time"

// QuarterlyFiling is the normalized financial snapshot extracted from
// one quarterly DART report. Equity is always present; asset and
// liability may be missing from the filing. Amounts are KRW.
type QuarterlyFiling struct {
	Quarter   time.Time `json:"quarter"`
	Equity    int64     `json:"equity"`
	Asset     *int64    `json:"asset,omitempty"`
	Liability *int64    `json:"liability,omitempty"`
}

// DurationEstimate is the per-quarter equity duration against one rate
// series. Duration is clipped to [-100, 100]; Raw carries the
// unclipped ratio. Both are nil when the estimate is undefined for the
// quarter (first quarter, missing rate, or zero rate change).
type DurationEstimate struct {
	Quarter  time.Time `json:"quarter"`
	Duration *float64  `json:"duration"`
	Raw      *float64  `json:"raw"`
	Clipped  bool      `json:"clipped"`
}

// Company is one analyzable insurer.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
