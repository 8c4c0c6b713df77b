package alpha_vantage

import (
	"strings"
)

type TimeSeries uint8

// TimeSeries specifies which end of day series to query for stock data.
const (
	TimeSeriesDaily TimeSeries = iota
	TimeSeriesDailyAdjusted
)

func (t TimeSeries) Name() string {
	switch t {
	case TimeSeriesDaily:
		return "TimeSeriesDaily"
	case TimeSeriesDailyAdjusted:
		return "TimeSeriesDailyAdjusted"
	default:
		return ""
	}
}

func (t TimeSeries) Function() string {
	switch t {
	case TimeSeriesDaily:
		return "TIME_SERIES_DAILY"
	case TimeSeriesDailyAdjusted:
		return "TIME_SERIES_DAILY_ADJUSTED"
	default:
		return ""
	}
}

// TimeSeriesKeyPrefix is how the series object is named in the response, ie "Time Series (Daily)".
func (t TimeSeries) TimeSeriesKeyPrefix() string {
	switch t {
	case TimeSeriesDaily, TimeSeriesDailyAdjusted:
		return "Time Series"
	default:
		return ""
	}
}

// CloseKeySuffix is the suffix of the value used as the closing price.
func (t TimeSeries) CloseKeySuffix() string {
	if t.IsAdjusted() {
		return ". adjusted close"
	}
	return ". close"
}

func (t TimeSeries) IsAdjusted() bool {
	return strings.HasSuffix(t.Function(), "_ADJUSTED")
}
