package core

import (
	"io"
	"time"

	"github.com/phuslu/log"

	"sa.service/api"
	m "sa.service/data/models"
	sm "sa.service/models"
)

const (
	DefaultBenchmark        = "^GSPC"
	DefaultBetaLookbackDays = 365
)

var DefaultTickers = []string{"AAPL", "GOOGL", "AMZN", "MSFT", "TSLA", "NFLX", "NVDA", "AMD", "INTC"}

// AnalysisSettings is the read only configuration every request shares.
type AnalysisSettings struct {
	Tickers          []string
	CorrelationStart time.Time
	CorrelationEnd   time.Time
	Benchmark        string
	BetaLookbackDays int
}

func DefaultAnalysisSettings() AnalysisSettings {
	return AnalysisSettings{
		Tickers:          DefaultTickers,
		CorrelationStart: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		CorrelationEnd:   time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC),
		Benchmark:        DefaultBenchmark,
		BetaLookbackDays: DefaultBetaLookbackDays,
	}
}

// ChartRenderer turns analysis results into encoded images.
type ChartRenderer interface {
	CorrelationHeatmap(cm *CorrelationMatrix) ([]byte, error)
	PriceLine(ts *m.TimeSeries) ([]byte, error)
	BetaScatter(b *BetaResult) ([]byte, error)
	MimeType() string
}

// PageRenderer writes a named html page.
type PageRenderer interface {
	Render(w io.Writer, name string, data sm.PageData) error
}

type ServiceContext struct {
	Fetcher  api.SeriesFetcher
	Journal  RunJournal
	Charts   ChartRenderer
	Pages    PageRenderer
	Logger   *log.Logger
	Settings AnalysisSettings
	now      func() time.Time
}

func NewServiceContext(fetcher api.SeriesFetcher, journal RunJournal, charts ChartRenderer, pages PageRenderer, logger *log.Logger, settings AnalysisSettings) *ServiceContext {
	if journal == nil {
		journal = NopJournal{}
	}
	return &ServiceContext{
		Fetcher:  fetcher,
		Journal:  journal,
		Charts:   charts,
		Pages:    pages,
		Logger:   logger,
		Settings: settings,
		now:      time.Now,
	}
}
