package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/guregu/null/v6"
	"github.com/phuslu/log"

	c "sa.service/api"
	m "sa.service/data/models"
)

const (
	HostDefault  = "query1.finance.yahoo.com"
	ProviderName = "yahoo"

	// the chart api turns away requests without a browser like agent
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	chartPath       = "/v8/finance/chart/"
	notFoundCode    = "Not Found"
	maxErrorBodyLen = 256
)

type YahooClient struct {
	*c.Client
	Interval c.TimeInterval
	Adjusted bool
	Workers  int
	now      func() time.Time
	logger   *log.Logger
}

func GetClient(timeout time.Duration, adjusted bool, logger *log.Logger) *YahooClient {
	base := &url.URL{Scheme: "https", Host: HostDefault}
	return NewClient(c.NewClient(base, "", timeout, userAgent), adjusted, logger)
}

func NewClient(client *c.Client, adjusted bool, logger *log.Logger) *YahooClient {
	return &YahooClient{
		Client:   client,
		Interval: c.TimeIntervalDaily,
		Adjusted: adjusted,
		Workers:  c.DefaultWorkers,
		now:      time.Now,
		logger:   logger,
	}
}

func (yc *YahooClient) Name() string {
	return ProviderName
}

func (yc *YahooClient) Fetch(ctx context.Context, symbols []string, start, end time.Time) (*m.PriceTable, error) {
	return c.FetchAll(ctx, yc, yc.logger, symbols, start, end, yc.Workers)
}

// FetchSymbol queries one symbol between start and end, a zero end means now.
func (yc *YahooClient) FetchSymbol(ctx context.Context, symbol string, start, end time.Time) (*m.TimeSeries, error) {
	if end.IsZero() {
		end = yc.now()
	}
	if !end.After(start) {
		// the api answers an inverted range with a 400, there is nothing to ask for
		return &m.TimeSeries{Symbol: symbol}, nil
	}

	endpoint := &url.URL{Path: chartPath + url.PathEscape(symbol)}
	q := endpoint.Query()
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", yc.Interval.Interval())
	q.Set("events", "history")
	q.Set("includeAdjustedClose", strconv.FormatBool(yc.Adjusted))
	endpoint.RawQuery = q.Encode()

	response, err := yc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s from yahoo: %w", symbol, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var chart ChartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		if response.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo returned %d for %s: %s", response.StatusCode, symbol, truncate(string(body)))
		}
		return nil, fmt.Errorf("error unmarshaling chart response: %w", err)
	}

	if chart.Chart.Error != nil {
		if strings.EqualFold(chart.Chart.Error.Code, notFoundCode) {
			return nil, fmt.Errorf("yahoo has no chart for %s (%s): %w", symbol, chart.Chart.Error.Description, c.ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("yahoo chart error for %s: %s %s", symbol, chart.Chart.Error.Code, chart.Chart.Error.Description)
	}

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned %d for %s", response.StatusCode, symbol)
	}

	if len(chart.Chart.Result) == 0 {
		return &m.TimeSeries{Symbol: symbol}, nil
	}

	points, err := parseResult(chart.Chart.Result[0], yc.Adjusted)
	if err != nil {
		return nil, fmt.Errorf("error parsing chart for %s: %w", symbol, err)
	}

	yc.logger.Debug().Str("symbol", symbol).Str("interval", yc.Interval.Name()).Int("rows", len(points)).Msg("yahoo chart received")

	return m.NewTimeSeries(symbol, points), nil
}

// parseResult pairs timestamps with closes. Dates are moved to midnight in the exchange
// time zone so every provider reports a trading day the same way.
func parseResult(res Result, adjusted bool) ([]m.RawPoint, error) {
	location := exchangeLocation(res.Meta)

	var closes []null.Float
	switch {
	case adjusted && len(res.Indicators.AdjClose) > 0:
		closes = res.Indicators.AdjClose[0].AdjClose
	case len(res.Indicators.Quote) > 0:
		closes = res.Indicators.Quote[0].Close
	}

	if len(res.Timestamp) > 0 && len(closes) != len(res.Timestamp) {
		return nil, fmt.Errorf("got %d timestamps but %d closes", len(res.Timestamp), len(closes))
	}

	points := make([]m.RawPoint, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		t := time.Unix(ts, 0).In(location)
		points[i] = m.RawPoint{
			Date:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, location),
			Close: closes[i],
		}
	}

	return points, nil
}

func exchangeLocation(meta Meta) *time.Location {
	if meta.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(meta.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	return time.FixedZone(meta.ExchangeName, meta.GmtOffset)
}

func truncate(s string) string {
	if len(s) > maxErrorBodyLen {
		return s[:maxErrorBodyLen] + "..."
	}
	return s
}
