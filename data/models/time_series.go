package models

import (
	"math"
	"slices"
	"time"

	"github.com/guregu/null/v6"
)

// PricePoint is a single closing price for a trading day.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// TimeSeries holds the closing prices of one symbol, dates strictly increasing.
type TimeSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// RawPoint is what a provider hands back before validation, the close can be missing.
type RawPoint struct {
	Date  time.Time
	Close null.Float
}

// NewTimeSeries builds a series out of raw provider rows. Rows without a finite close are
// dropped, the rest is sorted by date and duplicate dates keep the last row seen.
func NewTimeSeries(symbol string, raw []RawPoint) *TimeSeries {
	points := make([]PricePoint, 0, len(raw))
	for _, r := range raw {
		if !r.Close.Valid || math.IsNaN(r.Close.Float64) || math.IsInf(r.Close.Float64, 0) {
			continue
		}
		points = append(points, PricePoint{Date: r.Date, Close: r.Close.Float64})
	}

	slices.SortStableFunc(points, func(a, b PricePoint) int {
		return a.Date.Compare(b.Date)
	})

	res := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if n := len(res); n > 0 && res[n-1].Date.Equal(p.Date) {
			res[n-1] = p
			continue
		}
		res = append(res, p)
	}

	return &TimeSeries{Symbol: symbol, Points: res}
}

func (ts *TimeSeries) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.Points)
}

func (ts *TimeSeries) IsEmpty() bool {
	return ts.Len() == 0
}

// Since returns the points on or after start.
func (ts *TimeSeries) Since(start time.Time) *TimeSeries {
	idx, _ := slices.BinarySearchFunc(ts.Points, start, func(p PricePoint, t time.Time) int {
		return p.Date.Compare(t)
	})
	return &TimeSeries{Symbol: ts.Symbol, Points: slices.Clone(ts.Points[idx:])}
}

// Between returns the points in [start, end), a zero end means open ended.
func (ts *TimeSeries) Between(start, end time.Time) *TimeSeries {
	res := ts.Since(start)
	if end.IsZero() {
		return res
	}
	idx, _ := slices.BinarySearchFunc(res.Points, end, func(p PricePoint, t time.Time) int {
		return p.Date.Compare(t)
	})
	res.Points = res.Points[:idx]
	return res
}

// Lookup indexes closes by calendar day.
func (ts *TimeSeries) Lookup() map[string]float64 {
	res := make(map[string]float64, ts.Len())
	if ts == nil {
		return res
	}
	for _, p := range ts.Points {
		res[DayKey(p.Date)] = p.Close
	}
	return res
}

func (ts *TimeSeries) Closes() []float64 {
	res := make([]float64, ts.Len())
	for i, p := range ts.Points {
		res[i] = p.Close
	}
	return res
}

func (ts *TimeSeries) First() (PricePoint, bool) {
	if ts.IsEmpty() {
		return PricePoint{}, false
	}
	return ts.Points[0], true
}

func (ts *TimeSeries) Last() (PricePoint, bool) {
	if ts.IsEmpty() {
		return PricePoint{}, false
	}
	return ts.Points[len(ts.Points)-1], true
}

// DayKey is the calendar day of t in its own location, providers report trading days
// in exchange time so two series of the same market line up on it.
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}
