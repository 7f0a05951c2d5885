package models

import "errors"

var (
	// ErrDataUnavailable means no price series could be obtained for a symbol.
	ErrDataUnavailable = errors.New("price data unavailable")
	// ErrInsufficientHistory means the series is too short for stable indicators.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrForecastUnavailable means the forecast engine hit a numeric fault.
	ErrForecastUnavailable = errors.New("forecast unavailable")
)
