package config

import "time"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "",
			Port:           8080,
			ReadTimeout:    Duration{10 * time.Second},
			WriteTimeout:   Duration{60 * time.Second},
			RequestTimeout: Duration{55 * time.Second},
		},
		Provider: ProviderConfig{
			Name:     ProviderYahoo,
			Timeout:  Duration{30 * time.Second},
			Adjusted: false,
			Workers:  4,
		},
		Analysis: AnalysisConfig{
			Tickers:          []string{"AAPL", "GOOGL", "AMZN", "MSFT", "TSLA", "NFLX", "NVDA", "AMD", "INTC"},
			CorrelationStart: "2023-01-01",
			CorrelationEnd:   "2023-06-30",
			Benchmark:        "^GSPC",
			BetaLookbackDays: 365,
		},
		Charts: ChartsConfig{
			Width:  8,
			Height: 6,
			Format: "png",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
