package services

import "errors"

var (
	// ErrInsufficientData means fewer observations were available than
	// the computation requires. Handlers report it as an empty-result
	// condition, not a server fault.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoFilings means the filings source produced no usable quarter
	// at all, which points at a configuration or upstream data problem
	// rather than a short series.
	ErrNoFilings = errors.New("no filings found")
)
