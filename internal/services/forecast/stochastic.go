package forecast

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"PriceCast/internal/domain/models"
)

const (
	// Z80 is the two-sided 80% standard normal quantile used for the bands.
	Z80 = 1.28
	// MeanReversionStrength is the share of the gap to SMA20 closed per step.
	MeanReversionStrength = 0.05
	// MeanReversionStart is the last step index without mean reversion.
	MeanReversionStart = 3
)

// Params are the inputs of one random-walk projection.
type Params struct {
	Start      time.Time // date of the latest observation
	Price      float64
	Drift      float64 // adjusted daily trend
	Volatility float64 // daily std-dev of returns
	Anchor     float64 // mean-reversion target (SMA20)
	Horizon    int     // business days
}

// NextBusinessDay returns the first weekday strictly after t.
func NextBusinessDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Generate runs the drifted random walk with mean reversion and accumulated-volatility bands.
// A non-positive horizon yields an empty path. Any non-finite value aborts with ErrForecastUnavailable.
func Generate(p Params, src rand.Source) ([]models.ForecastPoint, error) {
	if p.Horizon <= 0 {
		return []models.ForecastPoint{}, nil
	}
	if !isFinite(p.Price, p.Drift, p.Volatility, p.Anchor) || p.Price <= 0 || p.Volatility < 0 {
		return nil, fmt.Errorf("%w: invalid inputs price=%v drift=%v vol=%v anchor=%v",
			models.ErrForecastUnavailable, p.Price, p.Drift, p.Volatility, p.Anchor)
	}

	dist := distuv.Normal{Mu: p.Drift, Sigma: p.Volatility, Src: src}
	out := make([]models.ForecastPoint, 0, p.Horizon)
	date := p.Start
	price := p.Price

	for i := 0; i < p.Horizon; i++ {
		date = NextBusinessDay(date)

		ret := dist.Rand()
		if i > MeanReversionStart {
			ret += (p.Anchor - price) * MeanReversionStrength / price
		}
		price *= 1 + ret

		cumVol := p.Volatility * math.Sqrt(float64(i+1))
		width := Z80 * price * cumVol
		pt := models.ForecastPoint{
			Date:    date,
			Price:   price,
			Upper80: price + width,
			Lower80: price - width,
		}
		if !isFinite(pt.Price, pt.Upper80, pt.Lower80) || price <= 0 {
			return nil, fmt.Errorf("%w: step %d produced price %v", models.ErrForecastUnavailable, i, price)
		}
		out = append(out, pt)
	}
	return out, nil
}

func isFinite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
