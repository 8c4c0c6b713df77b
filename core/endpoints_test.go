package core

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "sa.service/data/models"
	sm "sa.service/models"
)

func getTestServer(t *testing.T, fetcher *fakeFetcher, journal RunJournal) *httptest.Server {
	t.Helper()
	sc := getTestContext(t, fetcher, journal)
	srv := httptest.NewServer(NewRouter(sc, DefaultRequestTimeout))
	t.Cleanup(srv.Close)
	return srv
}

func postForm(t *testing.T, srv *httptest.Server, path string, form url.Values) string {
	t.Helper()
	res, err := http.PostForm(srv.URL+path, form)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, res.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(body)
}

func getJson[T any](t *testing.T, srv *httptest.Server, path string) (int, sm.ServiceResponse[T]) {
	t.Helper()
	res, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()

	var body sm.ServiceResponse[T]
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res.StatusCode, body
}

func TestPing(t *testing.T) {
	srv := getTestServer(t, newFakeFetcher(), nil)

	status, body := getJson[sm.PingResponse](t, srv, "/api/ping")

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, body.Data)
	assert.Equal(t, "pong", body.Data.Message)
	assert.Empty(t, body.Error)
}

func TestTickers(t *testing.T) {
	srv := getTestServer(t, newFakeFetcher(), nil)

	status, body := getJson[sm.TickersResponse](t, srv, "/api/tickers")

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, body.Data)
	assert.Equal(t, DefaultTickers, body.Data.Tickers)
}

func TestIndexPage(t *testing.T) {
	srv := getTestServer(t, newFakeFetcher(), nil)

	res, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
}

func TestCorrelationPageRendersChart(t *testing.T) {
	fetcher := newFakeFetcher(
		makeSeries("AAPL", day0, 1, 2, 3, 5),
		makeSeries("MSFT", day0, 2, 3, 5, 4),
	)
	journal := &memoryJournal{}
	srv := getTestServer(t, fetcher, journal)

	body := postForm(t, srv, "/correlation_matrix", url.Values{"stocks": {"AAPL", "MSFT"}})

	assert.Contains(t, body, "page="+sm.PageCorrelationMatrix)
	assert.Contains(t, body, `error=""`)
	assert.Contains(t, body, "chart=heatmap")

	runs := journal.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, m.AnalysisKindCorrelation, runs[0].Kind)
	assert.Equal(t, m.AnalysisOutcomeOk, runs[0].Outcome)
	assert.Equal(t, "fake", runs[0].Provider)
	assert.False(t, runs[0].Message.Valid)
}

func TestCorrelationPageInvalidTickerShowsMessage(t *testing.T) {
	srv := getTestServer(t, newFakeFetcher(), nil)

	body := postForm(t, srv, "/correlation_matrix", url.Values{"stocks": {"ZZZZINVALID", "YYYYINVALID"}})

	assert.Contains(t, body, "An error occurred")
	assert.NotContains(t, body, "chart=heatmap")
}

func TestCorrelationPageGetShowsForm(t *testing.T) {
	fetcher := newFakeFetcher()
	srv := getTestServer(t, fetcher, nil)

	res, err := http.Get(srv.URL + "/correlation_matrix")
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 0, fetcher.Calls())
}

func TestStockPricesPage(t *testing.T) {
	fetcher := newFakeFetcher(makeSeries("AAPL", day0, 10, 11, 12))
	srv := getTestServer(t, fetcher, nil)

	body := postForm(t, srv, "/stock_prices", url.Values{"stock": {"AAPL"}, "date": {"2023-01-02"}})
	assert.Contains(t, body, "chart=line")

	body = postForm(t, srv, "/stock_prices", url.Values{"stock": {"AAPL"}})
	assert.Contains(t, body, "Please select a stock and a date")

	body = postForm(t, srv, "/stock_prices", url.Values{"stock": {"AAPL"}, "date": {"2030-01-01"}})
	assert.Contains(t, body, "No data available for AAPL on 2030-01-01")
}

func TestBetaPageWithoutStockMakesNoCalls(t *testing.T) {
	fetcher := newFakeFetcher()
	journal := &memoryJournal{}
	srv := getTestServer(t, fetcher, journal)

	body := postForm(t, srv, "/beta_analysis", url.Values{})

	assert.Contains(t, body, "Please select a stock")
	assert.Equal(t, 0, fetcher.Calls())
	runs := journal.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, MissingInput.String(), runs[0].Outcome)
	assert.Equal(t, "Please select a stock", runs[0].Message.String)
}

func TestBetaPageShowsValue(t *testing.T) {
	start := day0.AddDate(1, 0, -10)
	fetcher := newFakeFetcher(
		makeSeries("^GSPC", start, 100, 101, 99, 102, 103),
		makeSeries("AAPL", start, 10, 10.2, 9.9, 10.4, 10.5),
	)
	srv := getTestServer(t, fetcher, nil)

	body := postForm(t, srv, "/beta_analysis", url.Values{"stock": {"AAPL"}})

	assert.Contains(t, body, "chart=scatter")
	assert.Contains(t, body, "beta=")
}

func TestJournalFailureDoesNotChangeResponse(t *testing.T) {
	fetcher := newFakeFetcher(makeSeries("AAPL", day0, 10, 11, 12))
	journal := &memoryJournal{err: errors.New("database is down")}
	srv := getTestServer(t, fetcher, journal)

	status, body := getJson[sm.PriceSeriesResponse](t, srv, "/api/prices?stock=AAPL&date=2023-01-03")

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, body.Data)
	assert.Len(t, body.Data.Points, 2)
	assert.Len(t, journal.Runs(), 1)
}

func TestApiCorrelation(t *testing.T) {
	fetcher := newFakeFetcher(
		makeSeries("AAPL", day0, 1, 2, 3, 5),
		makeSeries("MSFT", day0, 2, 3, 5, 4),
		makeSeries("FLAT", day0, 7, 7, 7, 7),
	)
	srv := getTestServer(t, fetcher, nil)

	status, body := getJson[sm.CorrelationResponse](t, srv, "/api/correlation?stocks=AAPL,MSFT&stocks=FLAT")

	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, body.Data)
	assert.Equal(t, []string{"AAPL", "MSFT", "FLAT"}, body.Data.Tickers)
	require.Len(t, body.Data.Matrix, 3)
	assert.InDelta(t, 1.0, body.Data.Matrix[0][0].Float64, 1e-12)
	assert.Equal(t, body.Data.Matrix[0][1], body.Data.Matrix[1][0])
	assert.False(t, body.Data.Matrix[0][2].Valid)
	assert.False(t, body.Data.Matrix[2][2].Valid)
}

func TestApiBetaFlatStockAnswersNullCorrelation(t *testing.T) {
	start := day0.AddDate(1, 0, -10)
	fetcher := newFakeFetcher(
		makeSeries("^GSPC", start, 100, 101, 99, 102, 103),
		makeSeries("HALT", start, 10, 10, 10, 10, 10),
	)
	srv := getTestServer(t, fetcher, nil)

	res, err := http.Get(srv.URL + "/api/beta?stock=HALT")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(raw), `"correlation":null`)

	var body sm.ServiceResponse[sm.BetaResponse]
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotNil(t, body.Data)
	assert.Equal(t, 0.0, body.Data.Beta)
	assert.False(t, body.Data.Correlation.Valid)
	assert.Equal(t, 4, body.Data.Observations)
}

func TestWriteJsonUnencodableBodyIsServerError(t *testing.T) {
	sc := getTestContext(t, newFakeFetcher(), nil)
	rec := httptest.NewRecorder()

	sc.writeJson(rec, http.StatusOK, map[string]float64{"beta": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestApiErrorStatusCodes(t *testing.T) {
	fetcher := newFakeFetcher(
		makeSeries("AAPL", day0, 10, 11, 12),
		makeSeries("^GSPC", day0.AddDate(1, 0, -10), 100, 100, 100, 100),
		makeSeries("MOVER", day0.AddDate(1, 0, -10), 1, 2, 3, 4),
	)
	srv := getTestServer(t, fetcher, nil)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"missing stocks", "/api/correlation?stocks=AAPL", http.StatusBadRequest},
		{"invalid date", "/api/prices?stock=AAPL&date=tomorrow", http.StatusBadRequest},
		{"no data", "/api/prices?stock=AAPL&date=2030-01-01", http.StatusNotFound},
		{"unknown symbol", "/api/prices?stock=ZZZZINVALID&date=2023-01-01", http.StatusBadGateway},
		{"missing stock", "/api/beta", http.StatusBadRequest},
		{"flat benchmark", "/api/beta?stock=MOVER", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := getJson[any](t, srv, tt.path)

			assert.Equal(t, tt.status, status)
			assert.Nil(t, body.Data)
			assert.NotEmpty(t, body.Error)
		})
	}
}
