package models

import "github.com/guregu/null/v6"

type PingResponse struct {
	Message string `json:"message"`
}

type TickersResponse struct {
	Tickers []string `json:"tickers"`
}

// CorrelationResponse carries the matrix row by row in ticker order, undefined cells are null.
type CorrelationResponse struct {
	Tickers []string       `json:"tickers"`
	Start   string         `json:"start"`
	End     string         `json:"end"`
	Matrix  [][]null.Float `json:"matrix"`
}

type PricePointResponse struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

type PriceSeriesResponse struct {
	Ticker string               `json:"ticker"`
	Start  string               `json:"start"`
	End    string               `json:"end"`
	Points []PricePointResponse `json:"points"`
}

type BetaResponse struct {
	Ticker       string     `json:"ticker"`
	Benchmark    string     `json:"benchmark"`
	Beta         float64    `json:"beta"`
	Alpha        float64    `json:"alpha"`
	Correlation  null.Float `json:"correlation"`
	Observations int        `json:"observations"`
	Start        string     `json:"start"`
	End          string     `json:"end"`
}
