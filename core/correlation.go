package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/mat"

	"sa.service/api"
	ex "sa.service/data/extensions"
	m "sa.service/data/models"
	sm "sa.service/models"
)

// CorrelationMatrix holds pearson correlations of closing prices, Values[i][j] belongs to
// Tickers[i] and Tickers[j]. An undefined cell is NaN.
type CorrelationMatrix struct {
	Tickers []string
	Values  *mat.SymDense
}

func (cm *CorrelationMatrix) Size() int {
	return len(cm.Tickers)
}

func (cm *CorrelationMatrix) At(i, j int) float64 {
	return cm.Values.At(i, j)
}

// Defined is false for pairs with too little overlap or a series that never moved.
func (cm *CorrelationMatrix) Defined(i, j int) bool {
	return !math.IsNaN(cm.Values.At(i, j))
}

// Get looks a pair up by ticker.
func (cm *CorrelationMatrix) Get(a, b string) (float64, bool) {
	i, j := indexOf(cm.Tickers, a), indexOf(cm.Tickers, b)
	if i < 0 || j < 0 || !cm.Defined(i, j) {
		return math.NaN(), false
	}
	return cm.At(i, j), true
}

func (cm *CorrelationMatrix) ToResponse(settings AnalysisSettings) sm.CorrelationResponse {
	n := cm.Size()
	rows := make([][]null.Float, n)
	for i := range n {
		rows[i] = make([]null.Float, n)
		for j := range n {
			if cm.Defined(i, j) {
				rows[i][j] = null.FloatFrom(cm.At(i, j))
			}
		}
	}

	return sm.CorrelationResponse{
		Tickers: cm.Tickers,
		Start:   ex.FmtShort(settings.CorrelationStart),
		End:     ex.FmtShort(settings.CorrelationEnd),
		Matrix:  rows,
	}
}

// AnalyzeCorrelation fetches closing prices for tickers over the configured window and
// correlates every pair of them.
func (sc *ServiceContext) AnalyzeCorrelation(ctx context.Context, tickers []string) (*CorrelationMatrix, error) {
	const op = "correlation"

	symbols := ex.NormalizeSymbols(tickers)
	if len(symbols) < 2 {
		return nil, newError(MissingInput, op, "Please select at least two stocks", nil)
	}

	start, end := sc.Settings.CorrelationStart, sc.Settings.CorrelationEnd
	table, err := sc.Fetcher.Fetch(ctx, symbols, start, end)
	if err != nil {
		return nil, fetchError(op, symbols, err)
	}

	if missing := table.Missing(); len(missing) > 0 {
		sc.Logger.Warn().Strs("symbols", missing).Msg("no prices for some symbols, their correlations are undefined")
	}

	if table.IsEmpty() {
		return nil, newError(NoDataAvailable, op,
			fmt.Sprintf("No data available for %s between %s and %s", strings.Join(symbols, ", "), ex.FmtShort(start), ex.FmtShort(end)), nil)
	}

	return CorrelationMatrixFromTable(table)
}

// CorrelationMatrixFromTable correlates every pair of columns of table using the dates
// both columns have.
func CorrelationMatrixFromTable(table *m.PriceTable) (*CorrelationMatrix, error) {
	const op = "correlation"

	if table.IsEmpty() {
		return nil, newError(NoDataAvailable, op, "No price data to correlate", nil)
	}

	n := len(table.Symbols)
	values := mat.NewSymDense(n, nil)
	for i, a := range table.Symbols {
		sa := table.Get(a)
		for j := range i + 1 {
			if i == j {
				if HasVariance(sa) {
					values.SetSym(i, i, 1)
				} else {
					values.SetSym(i, i, math.NaN())
				}
				continue
			}
			values.SetSym(i, j, PairwiseCorrelation(sa, table.Get(table.Symbols[j])))
		}
	}

	return &CorrelationMatrix{Tickers: table.Symbols, Values: values}, nil
}

// fetchError classifies a provider failure for the user.
func fetchError(op string, symbols []string, err error) error {
	joined := strings.Join(symbols, ", ")
	if errors.Is(err, api.ErrSymbolNotFound) {
		return newError(ExternalFetchFailure, op, fmt.Sprintf("An error occurred: no market data found for %s", joined), err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(ExternalFetchFailure, op, fmt.Sprintf("An error occurred: timed out fetching market data for %s", joined), err)
	}
	return newError(ExternalFetchFailure, op, fmt.Sprintf("An error occurred: unable to fetch market data for %s", joined), err)
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
