package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	ProviderYahoo        = "yahoo"
	ProviderAlphaVantage = "alphavantage"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Provider ProviderConfig `toml:"provider"`
	Analysis AnalysisConfig `toml:"analysis"`
	Charts   ChartsConfig   `toml:"charts"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	ReadTimeout    Duration `toml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// ProviderConfig selects where market data comes from.
type ProviderConfig struct {
	Name               string   `toml:"name"`
	Timeout            Duration `toml:"timeout"`
	AlphaVantageApiKey string   `toml:"alpha_vantage_api_key"`
	Adjusted           bool     `toml:"adjusted"`
	Workers            int      `toml:"workers"`
}

// AnalysisConfig holds the ticker list and the fixed windows of the analyses. Dates are YYYY-MM-DD.
type AnalysisConfig struct {
	Tickers          []string `toml:"tickers"`
	CorrelationStart string   `toml:"correlation_start"`
	CorrelationEnd   string   `toml:"correlation_end"`
	Benchmark        string   `toml:"benchmark"`
	BetaLookbackDays int      `toml:"beta_lookback_days"`
}

// ChartsConfig sizes rendered charts in inches.
type ChartsConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	Format string  `toml:"format"`
}

// DatabaseConfig points at the optional postgres analysis journal, empty disables it.
type DatabaseConfig struct {
	Url string `toml:"url"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration reads "30s" style strings out of toml.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Addr is the listen address of the http server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Window parses the correlation window.
func (a AnalysisConfig) Window() (start, end time.Time, err error) {
	start, err = time.Parse(time.DateOnly, a.CorrelationStart)
	if err != nil {
		return start, end, fmt.Errorf("invalid correlation_start: %w", err)
	}
	end, err = time.Parse(time.DateOnly, a.CorrelationEnd)
	if err != nil {
		return start, end, fmt.Errorf("invalid correlation_end: %w", err)
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("correlation_end %s is not after correlation_start %s", a.CorrelationEnd, a.CorrelationStart)
	}
	return start, end, nil
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies SA_* environment variable overrides to config. The provider key and
// database url also come from the plain ALPHAVANTAGE_API_KEY and DATABASE_URL variables.
func applyEnvOverrides(config *Config) {
	if host := os.Getenv("SA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if name := os.Getenv("SA_PROVIDER"); name != "" {
		config.Provider.Name = strings.ToLower(name)
	}
	if key := os.Getenv("ALPHAVANTAGE_API_KEY"); key != "" {
		config.Provider.AlphaVantageApiKey = key
	}
	if key := os.Getenv("SA_ALPHAVANTAGE_API_KEY"); key != "" {
		config.Provider.AlphaVantageApiKey = key
	}
	if tickers := os.Getenv("SA_TICKERS"); tickers != "" {
		config.Analysis.Tickers = strings.Split(tickers, ",")
	}
	if benchmark := os.Getenv("SA_BENCHMARK"); benchmark != "" {
		config.Analysis.Benchmark = benchmark
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.Database.Url = url
	}
	if url := os.Getenv("SA_DATABASE_URL"); url != "" {
		config.Database.Url = url
	}
	if level := os.Getenv("SA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("SA_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}

	switch c.Provider.Name {
	case ProviderYahoo:
	case ProviderAlphaVantage:
		if c.Provider.AlphaVantageApiKey == "" {
			errs = append(errs, errors.New("provider alphavantage needs an api key (ALPHAVANTAGE_API_KEY)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q, expected %s or %s", c.Provider.Name, ProviderYahoo, ProviderAlphaVantage))
	}
	if c.Provider.Workers <= 0 {
		errs = append(errs, errors.New("provider.workers must be positive"))
	}

	if len(c.Analysis.Tickers) == 0 {
		errs = append(errs, errors.New("analysis.tickers is empty"))
	}
	if _, _, err := c.Analysis.Window(); err != nil {
		errs = append(errs, err)
	}
	if c.Analysis.Benchmark == "" {
		errs = append(errs, errors.New("analysis.benchmark is empty"))
	}
	if c.Analysis.BetaLookbackDays < 2 {
		errs = append(errs, errors.New("analysis.beta_lookback_days must be at least 2"))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("unknown logging.level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}
