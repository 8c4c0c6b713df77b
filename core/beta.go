package core

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	ex "sa.service/data/extensions"
	m "sa.service/data/models"
	sm "sa.service/models"
)

// BetaResult is the regression of a stock's daily returns on the benchmark's.
type BetaResult struct {
	Ticker        string
	Benchmark     string
	Beta          float64
	Alpha         float64
	Correlation   float64 // NaN when the stock returns did not vary
	Observations  int
	Start         time.Time
	End           time.Time
	StockReturns  []float64
	MarketReturns []float64
}

func (b *BetaResult) ToResponse() sm.BetaResponse {
	return sm.BetaResponse{
		Ticker:       b.Ticker,
		Benchmark:    b.Benchmark,
		Beta:         b.Beta,
		Alpha:        b.Alpha,
		Correlation:  null.NewFloat(b.Correlation, !math.IsNaN(b.Correlation)),
		Observations: b.Observations,
		Start:        ex.FmtShort(b.Start),
		End:          ex.FmtShort(b.End),
	}
}

// CalculateBeta measures ticker against the configured benchmark over the trailing lookback window.
func (sc *ServiceContext) CalculateBeta(ctx context.Context, ticker string) (*BetaResult, error) {
	const op = "beta"

	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return nil, newError(MissingInput, op, "Please select a stock", nil)
	}

	benchmark := sc.Settings.Benchmark
	start := sc.now().AddDate(0, 0, -sc.Settings.BetaLookbackDays)

	var stock, market *m.TimeSeries
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		table, err := sc.Fetcher.Fetch(gctx, []string{symbol}, start, time.Time{})
		if err != nil {
			return err
		}
		stock = table.Get(symbol)
		return nil
	})
	g.Go(func() error {
		table, err := sc.Fetcher.Fetch(gctx, []string{benchmark}, start, time.Time{})
		if err != nil {
			return err
		}
		market = table.Get(benchmark)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fetchError(op, []string{symbol, benchmark}, err)
	}

	return BetaFromSeries(stock, market)
}

// BetaFromSeries is cov(stock, market) / var(market) over the daily returns both series have.
func BetaFromSeries(stock, market *m.TimeSeries) (*BetaResult, error) {
	const op = "beta"

	dates, rs, rm := AlignReturns(GetReturns(stock), GetReturns(market))
	if len(dates) < 2 {
		return nil, newError(NoDataAvailable, op,
			fmt.Sprintf("Not enough overlapping data for %s and %s to compute beta", stock.Symbol, market.Symbol), nil)
	}

	cov := GetCovarianceMatrix([][]float64{rs, rm})
	varMarket := cov.At(1, 1)
	if varMarket <= 0 || math.IsNaN(varMarket) {
		return nil, newError(UndefinedStatistic, op,
			fmt.Sprintf("Beta is undefined for %s, %s returns did not vary", stock.Symbol, market.Symbol), nil)
	}

	beta := cov.At(0, 1) / varMarket
	alpha := stat.Mean(rs, nil) - beta*stat.Mean(rm, nil)

	startDate, _ := time.Parse(time.DateOnly, dates[0])
	endDate, _ := time.Parse(time.DateOnly, dates[len(dates)-1])

	return &BetaResult{
		Ticker:        stock.Symbol,
		Benchmark:     market.Symbol,
		Beta:          beta,
		Alpha:         alpha,
		Correlation:   GetCorrelationMatrix(cov).At(0, 1),
		Observations:  len(dates),
		Start:         startDate,
		End:           endDate,
		StockReturns:  rs,
		MarketReturns: rm,
	}, nil
}
