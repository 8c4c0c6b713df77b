package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Provider.Name != ProviderYahoo {
		t.Errorf("expected default provider yahoo, got %s", cfg.Provider.Name)
	}
	if cfg.Provider.Timeout.Duration != 30*time.Second {
		t.Errorf("expected default provider timeout 30s, got %s", cfg.Provider.Timeout)
	}
	if len(cfg.Analysis.Tickers) != 9 {
		t.Errorf("expected 9 default tickers, got %d", len(cfg.Analysis.Tickers))
	}
	if cfg.Analysis.Benchmark != "^GSPC" {
		t.Errorf("expected default benchmark ^GSPC, got %s", cfg.Analysis.Benchmark)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFiles_NoFiles(t *testing.T) {
	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles with no files should not error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFiles_ValidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
[server]
port = 9090
host = "0.0.0.0"
read_timeout = "5s"

[provider]
name = "alphavantage"
alpha_vantage_api_key = "file-key"
adjusted = true
timeout = "1m"

[analysis]
tickers = ["SPY", "QQQ"]
correlation_start = "2022-01-01"
correlation_end = "2022-12-31"
benchmark = "SPY"

[charts]
format = "svg"

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:9090" {
		t.Errorf("expected addr 0.0.0.0:9090, got %s", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout.Duration != 5*time.Second {
		t.Errorf("expected read timeout 5s, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout.Duration != 60*time.Second {
		t.Errorf("write timeout should keep its default, got %s", cfg.Server.WriteTimeout)
	}
	if cfg.Provider.Name != ProviderAlphaVantage || !cfg.Provider.Adjusted {
		t.Errorf("expected adjusted alphavantage provider, got %+v", cfg.Provider)
	}
	if cfg.Provider.Timeout.Duration != time.Minute {
		t.Errorf("expected provider timeout 1m, got %s", cfg.Provider.Timeout)
	}
	if strings.Join(cfg.Analysis.Tickers, ",") != "SPY,QQQ" {
		t.Errorf("expected tickers SPY,QQQ, got %v", cfg.Analysis.Tickers)
	}
	start, end, err := cfg.Analysis.Window()
	if err != nil {
		t.Fatalf("window should parse: %v", err)
	}
	if start.Year() != 2022 || end.Month() != time.December {
		t.Errorf("unexpected window %s..%s", start, end)
	}
	if cfg.Charts.Format != "svg" || cfg.Charts.Width != 8 {
		t.Errorf("unexpected charts config %+v", cfg.Charts)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config should be valid: %v", err)
	}
}

func TestLoadFromFiles_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(tomlPath, []byte("[provider]\ntimeout = \"soon\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromFiles(tomlPath); err == nil {
		t.Fatal("expected an invalid duration to fail")
	}
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	if _, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected a missing file to fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SA_SERVER_PORT", "7070")
	t.Setenv("SA_PROVIDER", "AlphaVantage")
	t.Setenv("ALPHAVANTAGE_API_KEY", "env-key")
	t.Setenv("SA_TICKERS", "AAPL,MSFT")
	t.Setenv("DATABASE_URL", "postgres://localhost/sa")
	t.Setenv("SA_LOG_LEVEL", "warn")

	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("expected port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Provider.Name != ProviderAlphaVantage {
		t.Errorf("expected provider alphavantage, got %s", cfg.Provider.Name)
	}
	if cfg.Provider.AlphaVantageApiKey != "env-key" {
		t.Errorf("expected api key from env, got %s", cfg.Provider.AlphaVantageApiKey)
	}
	if len(cfg.Analysis.Tickers) != 2 {
		t.Errorf("expected 2 tickers, got %v", cfg.Analysis.Tickers)
	}
	if cfg.Database.Url != "postgres://localhost/sa" {
		t.Errorf("expected database url from env, got %s", cfg.Database.Url)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, 9999, "")

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "" {
		t.Errorf("host should be unchanged, got %s", cfg.Server.Host)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Provider.Name = ProviderAlphaVantage
	cfg.Provider.AlphaVantageApiKey = ""
	cfg.Analysis.CorrelationEnd = "2022-01-01"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"api key", "correlation_end", "logging.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	for _, key := range []string{"SA_SERVER_HOST", "SA_SERVER_PORT", "SA_PROVIDER", "ALPHAVANTAGE_API_KEY", "SA_ALPHAVANTAGE_API_KEY",
		"SA_TICKERS", "SA_BENCHMARK", "DATABASE_URL", "SA_DATABASE_URL", "SA_LOG_LEVEL", "SA_LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadFromFile("../config.example.toml")
	if err != nil {
		t.Fatalf("example config should load: %v", err)
	}

	if !reflect.DeepEqual(NewDefaultConfig(), cfg) {
		t.Errorf("example config drifted from the defaults:\n%+v\n%+v", NewDefaultConfig(), cfg)
	}
}
