package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	m "sa.service/data/models"
	sm "sa.service/models"
)

// SelectPriceSeries returns the closes of ticker from date up to the latest trading day.
func (sc *ServiceContext) SelectPriceSeries(ctx context.Context, ticker, date string) (*m.TimeSeries, error) {
	const op = "prices"

	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	date = strings.TrimSpace(date)
	if symbol == "" || date == "" {
		return nil, newError(MissingInput, op, "Please select a stock and a date", nil)
	}

	start, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, newError(InvalidInput, op, fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", date), err)
	}

	table, err := sc.Fetcher.Fetch(ctx, []string{symbol}, start, time.Time{})
	if err != nil {
		return nil, fetchError(op, []string{symbol}, err)
	}

	// some providers hand back the full history
	ts := table.Get(symbol).Since(start)
	if ts.IsEmpty() {
		return nil, newError(NoDataAvailable, op, fmt.Sprintf("No data available for %s on %s", symbol, date), nil)
	}

	return ts, nil
}

func PriceSeriesToResponse(ts *m.TimeSeries) sm.PriceSeriesResponse {
	res := sm.PriceSeriesResponse{
		Ticker: ts.Symbol,
		Points: make([]sm.PricePointResponse, ts.Len()),
	}
	for i, p := range ts.Points {
		res.Points[i] = sm.PricePointResponse{Date: m.DayKey(p.Date), Close: p.Close}
	}
	if first, ok := ts.First(); ok {
		res.Start = m.DayKey(first.Date)
	}
	if last, ok := ts.Last(); ok {
		res.End = m.DayKey(last.Date)
	}
	return res
}
