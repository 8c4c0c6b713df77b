package models

import "slices"

// PriceTable maps symbols to their closing price series, Symbols keeps the requested order.
type PriceTable struct {
	Symbols []string
	Series  map[string]*TimeSeries
}

func NewPriceTable(symbols []string) *PriceTable {
	return &PriceTable{
		Symbols: slices.Clone(symbols),
		Series:  make(map[string]*TimeSeries, len(symbols)),
	}
}

// Set stores a series, appending the symbol if it was not requested up front.
func (pt *PriceTable) Set(ts *TimeSeries) {
	if !slices.Contains(pt.Symbols, ts.Symbol) {
		pt.Symbols = append(pt.Symbols, ts.Symbol)
	}
	pt.Series[ts.Symbol] = ts
}

// Get never returns nil, a symbol without data gets an empty series.
func (pt *PriceTable) Get(symbol string) *TimeSeries {
	if ts, ok := pt.Series[symbol]; ok && ts != nil {
		return ts
	}
	return &TimeSeries{Symbol: symbol}
}

// Rows counts the distinct trading days over every series.
func (pt *PriceTable) Rows() int {
	days := make(map[string]struct{})
	for _, ts := range pt.Series {
		if ts == nil {
			continue
		}
		for _, p := range ts.Points {
			days[DayKey(p.Date)] = struct{}{}
		}
	}
	return len(days)
}

func (pt *PriceTable) IsEmpty() bool {
	return pt == nil || pt.Rows() == 0
}

// Missing lists the symbols that came back without any rows.
func (pt *PriceTable) Missing() []string {
	var res []string
	for _, s := range pt.Symbols {
		if pt.Get(s).IsEmpty() {
			res = append(res, s)
		}
	}
	return res
}
