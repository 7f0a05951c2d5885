package models

import (
	"sort"
	"time"
)

// DateLayout is the calendar-day format used across the API and snapshots.
const DateLayout = "2006-01-02"

// PricePoint is one daily closing price.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceSeries is an ordered sequence of daily closes for one symbol.
// Dates are strictly increasing and never later than the ingestion day.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// Day truncates t to its calendar day, keeping the wall-clock date of t's location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewPriceSeries sorts, dedupes (last write wins) and drops points dated after today.
// Non-positive closes are dropped as well.
func NewPriceSeries(symbol string, pts []PricePoint, today time.Time) PriceSeries {
	limit := Day(today)
	byDay := make(map[time.Time]float64, len(pts))
	for _, p := range pts {
		d := Day(p.Date)
		if d.After(limit) || p.Close <= 0 {
			continue
		}
		byDay[d] = p.Close
	}

	out := make([]PricePoint, 0, len(byDay))
	for d, c := range byDay {
		out = append(out, PricePoint{Date: d, Close: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return PriceSeries{Symbol: symbol, Points: out}
}

func (s PriceSeries) Len() int { return len(s.Points) }

func (s PriceSeries) Empty() bool { return len(s.Points) == 0 }

// Closes returns the closing prices in date order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// Last returns the most recent observation. The series must not be empty.
func (s PriceSeries) Last() PricePoint {
	return s.Points[len(s.Points)-1]
}

// Tail returns the last n observations (all of them when n >= Len).
func (s PriceSeries) Tail(n int) PriceSeries {
	if n <= 0 {
		return PriceSeries{Symbol: s.Symbol}
	}
	if n >= len(s.Points) {
		return s
	}
	return PriceSeries{Symbol: s.Symbol, Points: s.Points[len(s.Points)-n:]}
}

// Slice returns observations in [from, to).
func (s PriceSeries) Slice(from, to int) PriceSeries {
	return PriceSeries{Symbol: s.Symbol, Points: s.Points[from:to]}
}
