package models

import "github.com/guregu/null/v6"

// PageData is everything a page template can show. Chart holds the encoded image of
// media type ChartType, empty when there is none.
type PageData struct {
	Title          string
	Stocks         []string
	SelectedStocks []string
	SelectedStock  string
	SelectedDate   string
	Benchmark      string
	Beta           null.Float
	Chart          []byte
	ChartType      string
	ErrorMessage   string
}

// IsSelected is used by the templates to keep a multi select checked after a post.
func (pd PageData) IsSelected(stock string) bool {
	for _, s := range pd.SelectedStocks {
		if s == stock {
			return true
		}
	}
	return stock == pd.SelectedStock
}

const (
	PageIndex             = "index.html"
	PageCorrelationMatrix = "correlation_matrix.html"
	PageStockPrices       = "stock_prices.html"
	PageBetaAnalysis      = "beta_analysis.html"
)
