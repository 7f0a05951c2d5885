package repository

// Period is a lookback range for daily price history.
type Period string

const (
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
)

// IsValidPeriod returns true if p is a supported lookback range.
func IsValidPeriod(p Period) bool {
	switch p {
	case Period1mo, Period3mo, Period6mo, Period1y, Period2y, Period5y:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the default lookback range.
func DefaultPeriod() Period { return Period6mo }

// NormalizePeriod converts raw string to a valid period (or default).
func NormalizePeriod(s string) Period {
	if s == "" {
		return DefaultPeriod()
	}
	p := Period(s)
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}
