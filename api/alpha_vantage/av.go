package alpha_vantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/guregu/null/v6"
	"github.com/phuslu/log"

	c "sa.service/api"
	e "sa.service/data/extensions"
	m "sa.service/data/models"
)

// public
const (
	HostDefault  = "www.alphavantage.co"
	ProviderName = "alphavantage"
)

// private
const (
	// default query parameters
	defaultOutputSize = "full"
	defaultDataType   = "json"

	// api request elements
	query      = "query"
	apiKey     = "apikey"
	dataType   = "datatype"
	outputSize = "outputsize"
	symbol     = "symbol"
	function   = "function"

	// response elements that replace the payload when a call is rejected
	errorMessageKey = "Error Message"
	noteKey         = "Note"
	informationKey  = "Information"
	metaDataKey     = "Meta Data"
)

var (
	timeSeriesDateFormats = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}
)

type AlphaVantageClient struct {
	*c.Client
	TimeSeries TimeSeries
	Workers    int
	logger     *log.Logger
}

func GetClient(apiKey string, timeout time.Duration, adjusted bool, logger *log.Logger) *AlphaVantageClient {
	return NewClient(c.ClientFactory(HostDefault, apiKey, timeout), adjusted, logger)
}

func NewClient(client *c.Client, adjusted bool, logger *log.Logger) *AlphaVantageClient {
	ts := TimeSeriesDaily
	if adjusted {
		ts = TimeSeriesDailyAdjusted
	}

	return &AlphaVantageClient{
		Client:     client,
		TimeSeries: ts,
		Workers:    c.DefaultWorkers,
		logger:     logger,
	}
}

func (avc *AlphaVantageClient) Name() string {
	return ProviderName
}

// Fetch queries every symbol with one call each.
func (avc *AlphaVantageClient) Fetch(ctx context.Context, symbols []string, start, end time.Time) (*m.PriceTable, error) {
	return c.FetchAll(ctx, avc, avc.logger, symbols, start, end, avc.Workers)
}

// FetchSymbol gets the full daily history of a symbol, alpha vantage has no date range parameter
// so the caller trims it.
// https://www.alphavantage.co/documentation/#daily
func (avc *AlphaVantageClient) FetchSymbol(ctx context.Context, ticker string, start, end time.Time) (*m.TimeSeries, error) {
	if avc == nil || avc.Client == nil {
		panic("alpha vantage client has not been set.")
	}

	endpoint := avc.buildRequestPath(map[string]string{
		function: avc.TimeSeries.Function(),
		symbol:   ticker,
	})

	response, err := avc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s from alpha vantage: %w", ticker, err)
	}

	defer response.Body.Close()

	raw, err := parseRawJson(response.Body)
	if err != nil {
		return nil, err
	}

	if err := checkRejection(raw, ticker); err != nil {
		return nil, err
	}

	metaData, timeZone, err := parseMetaData(raw)
	if err != nil {
		return nil, err
	}

	points, err := parseTimeSeriesDataResult(raw, avc.TimeSeries, timeZone)
	if err != nil {
		return nil, err
	}

	avc.logger.Debug().
		Str("symbol", metaData.Symbol).
		Str("series", avc.TimeSeries.Name()).
		Str("last_refreshed", e.FmtShort(metaData.LastRefreshed)).
		Int("rows", len(points)).
		Msg("alpha vantage series received")

	return m.NewTimeSeries(ticker, points), nil
}

func (avc *AlphaVantageClient) buildRequestPath(params map[string]string) *url.URL {
	// build our URL
	endpoint := &url.URL{}
	endpoint.Path = query

	// base parameters
	query := endpoint.Query()
	query.Set(apiKey, avc.Client.ApiKey)
	query.Set(dataType, defaultDataType)
	query.Set(outputSize, defaultOutputSize)

	// additional parameters
	for key, value := range params {
		query.Set(key, value)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

type metaData struct {
	Symbol        string
	LastRefreshed time.Time
}

func parseRawJson(reader io.Reader) (raw map[string]json.RawMessage, err error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	// converting to a <string, raw message> map
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	return
}

// checkRejection looks for the payloads alpha vantage sends with a 200 instead of data.
func checkRejection(raw map[string]json.RawMessage, ticker string) error {
	if msg, ok := rawString(raw, errorMessageKey); ok {
		return fmt.Errorf("alpha vantage rejected %s (%s): %w", ticker, msg, c.ErrSymbolNotFound)
	}

	if _, hasMetaData := raw[metaDataKey]; hasMetaData {
		return nil
	}

	// rate limits and premium endpoints come back as a note or information
	for _, key := range []string{noteKey, informationKey} {
		if msg, ok := rawString(raw, key); ok {
			return fmt.Errorf("alpha vantage did not return data for %s: %s", ticker, msg)
		}
	}

	return fmt.Errorf("alpha vantage response for %s has no meta data", ticker)
}

func rawString(raw map[string]json.RawMessage, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return string(v), true
	}
	return s, true
}

func parseMetaData(raw map[string]json.RawMessage) (*metaData, *time.Location, error) {
	var metadataElements map[string]string
	if err := json.Unmarshal(raw[metaDataKey], &metadataElements); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling meta data: %w", err)
	}

	metaDataKeys := slices.Collect(maps.Keys(metadataElements))

	// parse symbol
	sf := func(s string) bool { return strings.HasSuffix(s, ". Symbol") }
	symbolKey, err := e.FilterSingle(metaDataKeys, sf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting symbol for meta data")
	}

	// parse time zone
	tzf := func(s string) bool { return strings.HasSuffix(s, ". Time Zone") }
	timeZoneKey, err := e.FilterSingle(metaDataKeys, tzf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting time zone for meta data")
	}

	timeZone, err := getTimeZone(metadataElements[timeZoneKey])
	if err != nil {
		return nil, nil, fmt.Errorf("error converting time zone key %s, to time.Location: %w", metadataElements[timeZoneKey], err)
	}

	// parse last refreshed
	lrf := func(s string) bool { return strings.HasSuffix(s, ". Last Refreshed") }
	lastRefreshedKey, err := e.FilterSingle(metaDataKeys, lrf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting last refreshed date")
	}

	lastRefreshed, err := parseDate(metadataElements[lastRefreshedKey], timeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing last refreshed date")
	}

	return &metaData{
		Symbol:        metadataElements[symbolKey],
		LastRefreshed: lastRefreshed,
	}, timeZone, nil
}

func parseTimeSeriesDataResult(raw map[string]json.RawMessage, ts TimeSeries, location *time.Location) ([]m.RawPoint, error) {
	tsf := func(s string) bool { return strings.HasPrefix(s, ts.TimeSeriesKeyPrefix()) }
	key, err := e.FilterSingle(slices.Collect(maps.Keys(raw)), tsf)
	if err != nil {
		return nil, fmt.Errorf("error finding %q in response: %w", ts.TimeSeriesKeyPrefix(), err)
	}

	var timeSeriesElements map[string]map[string]string
	if err := json.Unmarshal(raw[key], &timeSeriesElements); err != nil {
		return nil, fmt.Errorf("error unmarshaling time series: %w", err)
	}

	points := make([]m.RawPoint, 0, len(timeSeriesElements))
	if len(timeSeriesElements) == 0 {
		return points, nil
	}

	// populate the lookup from the first value, every row has the same keys
	var firstValue map[string]string
	for _, v := range timeSeriesElements {
		firstValue = v
		break
	}

	cf := func(s string) bool { return e.HasSuffixFold(s, ts.CloseKeySuffix()) }
	closeKey, err := e.FilterSingle(slices.Collect(maps.Keys(firstValue)), cf)
	if err != nil {
		ex := slices.Collect(maps.Keys(firstValue))
		return nil, fmt.Errorf("error extracting close key for time series. Available headers: %v", ex)
	}

	for timeSeriesKey, timeSeriesValue := range timeSeriesElements {
		timestamp, err := parseDate(timeSeriesKey, location)
		if err != nil {
			return nil, fmt.Errorf("error converting TIMESTAMP from string to time.Time: %w", err)
		}

		points = append(points, m.RawPoint{
			Date:  timestamp,
			Close: parseFloat(timeSeriesValue[closeKey]),
		})
	}

	return points, nil
}

func getTimeZone(location string) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	default:
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)

	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation", loc)
	}

	return res, nil
}

func parseDate(dateString string, location *time.Location) (time.Time, error) {
	for _, format := range timeSeriesDateFormats {
		t, err := time.ParseInLocation(format, dateString, location)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %s to time.Time", dateString)
}

func parseFloat(val string) null.Float {
	if val != "" {
		if conv, err := strconv.ParseFloat(val, 64); err == nil {
			return null.NewFloat(conv, true)
		}
	}
	return null.NewFloat(0, false)
}
