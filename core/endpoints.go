package core

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/guregu/null/v6"
	"github.com/phuslu/log"

	m "sa.service/data/models"
	sm "sa.service/models"
)

const (
	DefaultAddr           = ":8080"
	DefaultReadTimeout    = 10 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultRequestTimeout = 55 * time.Second
)

type ServerSettings struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
}

func DefaultServerSettings() ServerSettings {
	return ServerSettings{
		Addr:           DefaultAddr,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		RequestTimeout: DefaultRequestTimeout,
	}
}

func GetHttpServer(sc *ServiceContext, settings ServerSettings) *http.Server {
	server := &http.Server{
		Addr:           settings.Addr,
		Handler:        NewRouter(sc, settings.RequestTimeout),
		ReadTimeout:    settings.ReadTimeout,
		WriteTimeout:   settings.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	return server
}

// NewRouter wires the html pages and the json api onto one chi router.
func NewRouter(sc *ServiceContext, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(sc.Logger))
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/", sc.indexPage)
	r.Get("/correlation_matrix", sc.correlationMatrixPage)
	r.Post("/correlation_matrix", sc.correlationMatrixPage)
	r.Get("/stock_prices", sc.stockPricesPage)
	r.Post("/stock_prices", sc.stockPricesPage)
	r.Get("/beta_analysis", sc.betaAnalysisPage)
	r.Post("/beta_analysis", sc.betaAnalysisPage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", sc.ping)
		r.Get("/tickers", sc.tickers)
		r.Get("/correlation", sc.correlation)
		r.Get("/prices", sc.prices)
		r.Get("/beta", sc.beta)
	})

	return r
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("request handled")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func (sc *ServiceContext) basePage(title string) sm.PageData {
	return sm.PageData{
		Title:     title,
		Stocks:    sc.Settings.Tickers,
		Benchmark: sc.Settings.Benchmark,
		ChartType: sc.Charts.MimeType(),
	}
}

func (sc *ServiceContext) indexPage(w http.ResponseWriter, r *http.Request) {
	sc.renderPage(w, sm.PageIndex, sc.basePage("Stock Analysis"))
}

func (sc *ServiceContext) correlationMatrixPage(w http.ResponseWriter, r *http.Request) {
	data := sc.basePage("Correlation Matrix")

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			data.ErrorMessage = "Could not read the submitted form"
			sc.renderPage(w, sm.PageCorrelationMatrix, data)
			return
		}
		data.SelectedStocks = r.PostForm["stocks"]

		started := sc.now()
		cm, err := sc.AnalyzeCorrelation(r.Context(), data.SelectedStocks)
		if err == nil {
			data.Chart, err = sc.Charts.CorrelationHeatmap(cm)
		}
		sc.recordRun(r.Context(), m.AnalysisKindCorrelation, data.SelectedStocks, started, err)
		sc.pageError(&data, "correlation", err)
	}

	sc.renderPage(w, sm.PageCorrelationMatrix, data)
}

func (sc *ServiceContext) stockPricesPage(w http.ResponseWriter, r *http.Request) {
	data := sc.basePage("Stock Prices")

	if r.Method == http.MethodPost {
		data.SelectedStock = r.FormValue("stock")
		data.SelectedDate = r.FormValue("date")

		started := sc.now()
		ts, err := sc.SelectPriceSeries(r.Context(), data.SelectedStock, data.SelectedDate)
		if err == nil {
			data.Chart, err = sc.Charts.PriceLine(ts)
		}
		sc.recordRun(r.Context(), m.AnalysisKindPrices, []string{data.SelectedStock}, started, err)
		sc.pageError(&data, "prices", err)
	}

	sc.renderPage(w, sm.PageStockPrices, data)
}

func (sc *ServiceContext) betaAnalysisPage(w http.ResponseWriter, r *http.Request) {
	data := sc.basePage("Beta Analysis")

	if r.Method == http.MethodPost {
		data.SelectedStock = r.FormValue("stock")

		started := sc.now()
		b, err := sc.CalculateBeta(r.Context(), data.SelectedStock)
		if err == nil {
			data.Beta = null.FloatFrom(b.Beta)
			data.Chart, err = sc.Charts.BetaScatter(b)
		}
		sc.recordRun(r.Context(), m.AnalysisKindBeta, []string{data.SelectedStock}, started, err)
		sc.pageError(&data, "beta", err)
	}

	sc.renderPage(w, sm.PageBetaAnalysis, data)
}

// pageError puts the message for err on the page, the chart is dropped with it.
func (sc *ServiceContext) pageError(data *sm.PageData, op string, err error) {
	if err == nil {
		return
	}
	sc.Logger.Warn().Str("op", op).Str("kind", KindOf(err).String()).Err(err).Msg("analysis failed")
	data.Chart = nil
	data.ErrorMessage = UserMessage(err)
}

// renderPage buffers the template so a failing render can still answer with a 500.
func (sc *ServiceContext) renderPage(w http.ResponseWriter, name string, data sm.PageData) {
	var buf bytes.Buffer
	if err := sc.Pages.Render(&buf, name, data); err != nil {
		sc.Logger.Error().Str("page", name).Err(err).Msg("error rendering page")
		http.Error(w, "error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (sc *ServiceContext) ping(w http.ResponseWriter, r *http.Request) {
	sc.writeJson(w, http.StatusOK, sm.GetServiceResponseOk(&sm.PingResponse{Message: "pong"}))
}

func (sc *ServiceContext) tickers(w http.ResponseWriter, r *http.Request) {
	sc.writeJson(w, http.StatusOK, sm.GetServiceResponseOk(&sm.TickersResponse{Tickers: sc.Settings.Tickers}))
}

func (sc *ServiceContext) correlation(w http.ResponseWriter, r *http.Request) {
	var stocks []string
	for _, v := range r.URL.Query()["stocks"] {
		stocks = append(stocks, strings.Split(v, ",")...)
	}

	started := sc.now()
	cm, err := sc.AnalyzeCorrelation(r.Context(), stocks)
	sc.recordRun(r.Context(), m.AnalysisKindCorrelation, stocks, started, err)
	if err != nil {
		writeAnalysisError[sm.CorrelationResponse](sc, w, err)
		return
	}

	res := cm.ToResponse(sc.Settings)
	sc.writeJson(w, http.StatusOK, sm.GetServiceResponseOk(&res))
}

func (sc *ServiceContext) prices(w http.ResponseWriter, r *http.Request) {
	stock, date := r.URL.Query().Get("stock"), r.URL.Query().Get("date")

	started := sc.now()
	ts, err := sc.SelectPriceSeries(r.Context(), stock, date)
	sc.recordRun(r.Context(), m.AnalysisKindPrices, []string{stock}, started, err)
	if err != nil {
		writeAnalysisError[sm.PriceSeriesResponse](sc, w, err)
		return
	}

	res := PriceSeriesToResponse(ts)
	sc.writeJson(w, http.StatusOK, sm.GetServiceResponseOk(&res))
}

func (sc *ServiceContext) beta(w http.ResponseWriter, r *http.Request) {
	stock := r.URL.Query().Get("stock")

	started := sc.now()
	b, err := sc.CalculateBeta(r.Context(), stock)
	sc.recordRun(r.Context(), m.AnalysisKindBeta, []string{stock}, started, err)
	if err != nil {
		writeAnalysisError[sm.BetaResponse](sc, w, err)
		return
	}

	res := b.ToResponse()
	sc.writeJson(w, http.StatusOK, sm.GetServiceResponseOk(&res))
}

func writeAnalysisError[T any](sc *ServiceContext, w http.ResponseWriter, err error) {
	sc.writeJson(w, KindOf(err).HttpStatus(), sm.GetServiceResponseError[T](UserMessage(err)))
}

// writeJson encodes before writing the header so a body that cannot be encoded answers with a 500.
func (sc *ServiceContext) writeJson(w http.ResponseWriter, status int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		sc.Logger.Error().Err(err).Msg("error encoding json response")
		http.Error(w, "error encoding response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
