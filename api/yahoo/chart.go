package yahoo

import (
	"github.com/guregu/null/v6"
)

// ChartResponse is the top level container of the v8 chart endpoint
type ChartResponse struct {
	Chart ChartData `json:"chart"`
}

type ChartData struct {
	Result []Result    `json:"result"`
	Error  *ChartError `json:"error"`
}

type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type Result struct {
	Meta       Meta       `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators Indicators `json:"indicators"`
}

type Meta struct {
	Currency             string `json:"currency"`
	Symbol               string `json:"symbol"`
	ExchangeName         string `json:"exchangeName"`
	InstrumentType       string `json:"instrumentType"`
	GmtOffset            int    `json:"gmtoffset"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	DataGranularity      string `json:"dataGranularity"`
}

type Indicators struct {
	Quote    []Quote    `json:"quote"`
	AdjClose []AdjClose `json:"adjclose"`
}

// Quote values are null on days the exchange reported nothing
type Quote struct {
	Open   []null.Float `json:"open"`
	High   []null.Float `json:"high"`
	Low    []null.Float `json:"low"`
	Close  []null.Float `json:"close"`
	Volume []null.Int   `json:"volume"`
}

type AdjClose struct {
	AdjClose []null.Float `json:"adjclose"`
}
