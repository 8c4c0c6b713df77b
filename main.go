package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"

	"sa.service/api"
	av "sa.service/api/alpha_vantage"
	"sa.service/api/yahoo"
	"sa.service/charts"
	"sa.service/config"
	c "sa.service/core"
	r "sa.service/data/repos"
	"sa.service/pages"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a toml config file")
	port := flag.Int("port", 0, "port to listen on, overrides the config")
	host := flag.String("host", "", "host to bind, overrides the config")
	flag.Parse()

	// initialize context and signal handler, listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// load in environment variables from .env file, before the config reads them
	envErr := godotenv.Load()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	config.ApplyFlagOverrides(cfg, *port, *host)

	logger := config.NewLogger(cfg.Logging)
	if envErr != nil {
		logger.Info().Err(envErr).Msg(".env not loaded")
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid config")
	}

	fetcher := getFetcher(cfg.Provider, logger)

	// the journal is optional, the analyses never depend on it
	var journal c.RunJournal
	if cfg.Database.Url != "" {
		postgresConnection, err := r.GetPostgresConnection(ctx, cfg.Database.Url)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer postgresConnection.Close()

		if err := postgresConnection.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create analysis journal")
		}
		journal = postgresConnection
	} else {
		logger.Info().Msg("No database configured, analysis runs are not journaled")
	}

	chartRenderer, err := charts.NewRenderer(charts.Settings{
		Width:  cfg.Charts.Width,
		Height: cfg.Charts.Height,
		Format: cfg.Charts.Format,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create chart renderer")
	}

	pageRenderer, err := pages.NewRenderer()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to parse page templates")
	}

	start, end, err := cfg.Analysis.Window()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid correlation window")
	}
	settings := c.AnalysisSettings{
		Tickers:          cfg.Analysis.Tickers,
		CorrelationStart: start,
		CorrelationEnd:   end,
		Benchmark:        cfg.Analysis.Benchmark,
		BetaLookbackDays: cfg.Analysis.BetaLookbackDays,
	}

	sc := c.NewServiceContext(fetcher, journal, chartRenderer, pageRenderer, logger, settings)

	// get http server, makes all of the endpoints and routes
	s := c.GetHttpServer(sc, c.ServerSettings{
		Addr:           cfg.Server.Addr(),
		ReadTimeout:    cfg.Server.ReadTimeout.Duration,
		WriteTimeout:   cfg.Server.WriteTimeout.Duration,
		RequestTimeout: cfg.Server.RequestTimeout.Duration,
	})

	go func() {
		logger.Info().Str("addr", s.Addr).Str("provider", fetcher.Name()).Msg("Starting stock analysis server")
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server error")
		}
	}()

	// wait here until the context is closed (ie, ctrl+C)
	<-ctx.Done()
	logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
	}

	logger.Info().Msg("Server stopped successfully")
}

func getFetcher(cfg config.ProviderConfig, logger *log.Logger) api.SeriesFetcher {
	switch cfg.Name {
	case config.ProviderAlphaVantage:
		client := av.GetClient(cfg.AlphaVantageApiKey, cfg.Timeout.Duration, cfg.Adjusted, logger)
		client.Workers = cfg.Workers
		return client
	default:
		client := yahoo.GetClient(cfg.Timeout.Duration, cfg.Adjusted, logger)
		client.Workers = cfg.Workers
		return client
	}
}
