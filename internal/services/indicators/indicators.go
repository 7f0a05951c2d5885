package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// RSIWindow is the trailing number of returns averaged by RSI.
	RSIWindow = 14
	// ShortSMAWindow and LongSMAWindow drive the moving-average crossover.
	ShortSMAWindow = 5
	LongSMAWindow  = 20
	// TrendWindow is the number of most recent returns averaged into the recent trend.
	TrendWindow = 10
	// NeutralRSI substitutes an undefined latest RSI.
	NeutralRSI = 50.0
)

// Returns computes simple returns r[i] = p[i]/p[i-1] - 1.
// The output is aligned to the input; position 0 and any position after a
// non-positive price are NaN.
func Returns(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		prev := closes[i-1]
		if prev <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = closes[i]/prev - 1
	}
	return out
}

// SMA computes the trailing simple moving average over window w.
// Positions before w observations exist are NaN.
func SMA(closes []float64, w int) []float64 {
	out := make([]float64, len(closes))
	if w <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= w {
			sum -= closes[i-w]
		}
		if i < w-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(w)
	}
	return out
}

// RSI computes the relative strength index from returns over a trailing window w.
// A position is defined once w returns are available (index >= w). When the window
// has no losses RSI saturates to 100; when it has neither gains nor losses it is NaN.
func RSI(closes []float64, w int) []float64 {
	rets := Returns(closes)
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
		if w <= 0 || i < w {
			continue
		}
		gain, loss := 0.0, 0.0
		valid := true
		for _, r := range rets[i-w+1 : i+1] {
			if math.IsNaN(r) {
				valid = false
				break
			}
			if r > 0 {
				gain += r
			} else {
				loss -= r
			}
		}
		if !valid {
			continue
		}
		gain /= float64(w)
		loss /= float64(w)
		out[i] = rsiFromAverages(gain, loss)
	}
	return out
}

func rsiFromAverages(gain, loss float64) float64 {
	if loss == 0 {
		if gain == 0 {
			return math.NaN()
		}
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

// mean of the trailing n values of xs (all of them when n >= len).
func trailingMean(xs []float64, n int) float64 {
	if n > len(xs) {
		n = len(xs)
	}
	return stat.Mean(xs[len(xs)-n:], nil)
}

// sampleStdDev uses the n-1 denominator; a single value has zero dispersion.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
