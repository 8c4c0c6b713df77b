package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	ex "sa.service/data/extensions"
	m "sa.service/data/models"
)

const (
	DefaultWorkers = 4
	DefaultTimeout = time.Second * 30
)

// ErrSymbolNotFound is returned by a provider when it does not know the symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// SeriesFetcher returns closing prices for symbols over [start, end). A zero end means up to the latest data.
type SeriesFetcher interface {
	Fetch(ctx context.Context, symbols []string, start, end time.Time) (*m.PriceTable, error)
	Name() string
}

// SymbolFetcher is the single symbol call each provider implements.
type SymbolFetcher interface {
	FetchSymbol(ctx context.Context, symbol string, start, end time.Time) (*m.TimeSeries, error)
}

// FetchAll fans a multi symbol fetch out over at most workers concurrent calls.
// A symbol the provider does not know is logged and left empty, it only fails the
// whole fetch when every symbol is unknown. Any other error cancels the rest.
func FetchAll(ctx context.Context, sf SymbolFetcher, logger *log.Logger, symbols []string, start, end time.Time, workers int) (*m.PriceTable, error) {
	table := m.NewPriceTable(symbols)
	if len(symbols) == 0 {
		return table, nil
	}

	var mu sync.Mutex
	var notFound []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ex.Max(1, ex.Min(workers, len(symbols))))

	for _, symbol := range symbols {
		g.Go(func() error {
			ts, err := sf.FetchSymbol(gctx, symbol, start, end)
			if errors.Is(err, ErrSymbolNotFound) {
				logger.Warn().Str("symbol", symbol).Err(err).Msg("symbol lookup failed, leaving column empty")
				mu.Lock()
				notFound = append(notFound, symbol)
				table.Set(&m.TimeSeries{Symbol: symbol})
				mu.Unlock()
				return nil
			}
			if err != nil {
				return fmt.Errorf("error fetching %s: %w", symbol, err)
			}

			mu.Lock()
			table.Set(ts.Between(start, end))
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(notFound) == len(symbols) {
		return nil, fmt.Errorf("no requested symbol was found %v: %w", notFound, ErrSymbolNotFound)
	}

	return table, nil
}
