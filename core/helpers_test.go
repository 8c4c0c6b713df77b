package core

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/phuslu/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"sa.service/api"
	m "sa.service/data/models"
	sm "sa.service/models"
)

const (
	mu_a    = 0.08
	mu_b    = 0.10
	mu_c    = 0.12
	sigma_a = 0.15
	sigma_b = 0.20
	sigma_c = 0.25
	corr_ab = 0.5
	corr_ac = 0.0
	corr_bc = 0.0

	tradingDays = 252
)

var day0 = time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)

// fakeFetcher serves canned series and counts how often it was asked.
type fakeFetcher struct {
	mu     sync.Mutex
	series map[string]*m.TimeSeries
	err    error
	calls  int
	asked  []string
}

func newFakeFetcher(series ...*m.TimeSeries) *fakeFetcher {
	f := &fakeFetcher{series: make(map[string]*m.TimeSeries)}
	for _, ts := range series {
		f.series[ts.Symbol] = ts
	}
	return f
}

func (f *fakeFetcher) Name() string {
	return "fake"
}

func (f *fakeFetcher) Fetch(ctx context.Context, symbols []string, start, end time.Time) (*m.PriceTable, error) {
	f.mu.Lock()
	f.calls++
	f.asked = append(f.asked, symbols...)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	table := m.NewPriceTable(symbols)
	found := 0
	for _, s := range symbols {
		ts, ok := f.series[s]
		if !ok {
			table.Set(&m.TimeSeries{Symbol: s})
			continue
		}
		found++
		table.Set(ts.Between(start, end))
	}
	if found == 0 {
		return nil, fmt.Errorf("fake has none of %v: %w", symbols, api.ErrSymbolNotFound)
	}
	return table, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCharts struct{}

func (fakeCharts) CorrelationHeatmap(*CorrelationMatrix) ([]byte, error) {
	return []byte("heatmap"), nil
}

func (fakeCharts) PriceLine(*m.TimeSeries) ([]byte, error) {
	return []byte("line"), nil
}

func (fakeCharts) BetaScatter(*BetaResult) ([]byte, error) {
	return []byte("scatter"), nil
}

func (fakeCharts) MimeType() string {
	return "image/png"
}

// fakePages writes a line of text that tests can match on instead of html.
type fakePages struct{}

func (fakePages) Render(w io.Writer, name string, data sm.PageData) error {
	_, err := fmt.Fprintf(w, "page=%s error=%q chart=%s", name, data.ErrorMessage, data.Chart)
	if data.Beta.Valid {
		fmt.Fprintf(w, " beta=%.2f", data.Beta.Float64)
	}
	return err
}

type memoryJournal struct {
	mu   sync.Mutex
	runs []m.AnalysisRun
	err  error
}

func (j *memoryJournal) Record(ctx context.Context, run m.AnalysisRun) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, run)
	return j.err
}

func (j *memoryJournal) Runs() []m.AnalysisRun {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]m.AnalysisRun(nil), j.runs...)
}

func testLogger() *log.Logger {
	return &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

func getTestContext(t *testing.T, fetcher api.SeriesFetcher, journal RunJournal) *ServiceContext {
	t.Helper()
	sc := NewServiceContext(fetcher, journal, fakeCharts{}, fakePages{}, testLogger(), DefaultAnalysisSettings())
	sc.now = func() time.Time { return time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC) }
	return sc
}

// Helper: a series with one close per calendar day from start
func makeSeries(symbol string, start time.Time, closes ...float64) *m.TimeSeries {
	raw := make([]m.RawPoint, len(closes))
	for i, c := range closes {
		raw[i] = m.RawPoint{Date: start.AddDate(0, 0, i), Close: null.FloatFrom(c)}
	}
	return m.NewTimeSeries(symbol, raw)
}

// Helper: prices compounding the given log returns from an initial value
func pricesFromLogReturns(initial float64, returns []float64) []float64 {
	res := make([]float64, len(returns)+1)
	res[0] = initial
	for i, r := range returns {
		res[i+1] = res[i] * math.Exp(r)
	}
	return res
}

// Helper: Generate mock daily log returns for three assets with the correlations above
func generateMockReturns(t *testing.T, n int) [][]float64 {
	t.Helper()

	nAssets := 3
	corrData := []float64{
		1.0, corr_ab, corr_ac,
		corr_ab, 1.0, corr_bc,
		corr_ac, corr_bc, 1.0,
	}

	corrMatrix := mat.NewSymDense(nAssets, corrData)
	var chol mat.Cholesky
	if ok := chol.Factorize(corrMatrix); !ok {
		t.Fatalf("Correlation matrix is not positive definite")
	}

	L := new(mat.TriDense)
	chol.LTo(L)

	src := rand.NewPCG(42, 0)
	normalDist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	asset_a := make([]float64, n)
	asset_b := make([]float64, n)
	asset_c := make([]float64, n)

	z := make([]float64, nAssets)
	for sim := range n {
		for i := range nAssets {
			z[i] = normalDist.Rand()
		}

		zVec := mat.NewVecDense(nAssets, z)
		correlatedZ := mat.NewVecDense(nAssets, nil)
		correlatedZ.MulVec(L, zVec)

		asset_a[sim] = calculateLogNormalReturn(t, mu_a, sigma_a, correlatedZ.AtVec(0), tradingDays)
		asset_b[sim] = calculateLogNormalReturn(t, mu_b, sigma_b, correlatedZ.AtVec(1), tradingDays)
		asset_c[sim] = calculateLogNormalReturn(t, mu_c, sigma_c, correlatedZ.AtVec(2), tradingDays)
	}

	return [][]float64{asset_a, asset_b, asset_c}
}

// Helper: Centralized way to calculate log normal returns
func calculateLogNormalReturn(t *testing.T, mu, sigma, rng, normalization float64) float64 {
	t.Helper()
	return (mu-0.5*math.Pow(sigma, 2))/normalization + (sigma * rng / math.Sqrt(normalization))
}
