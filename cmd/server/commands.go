package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stocks-api/internal/config"
	"stocks-api/internal/handlers"
	"stocks-api/internal/models"
	"stocks-api/internal/services"
	"stocks-api/pkg/logger"
	"stocks-api/pkg/yahoo"
)

const (
	requestTimeout  = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

// NewRootCmd creates the stocks-api command tree. Running it bare starts the server.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stocks-api",
		Short:         "Stock price history, forecasts and statistics over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newPricesCmd(),
		newPredictCmd(),
		newStatsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newPricesCmd() *cobra.Command {
	var period, interval string
	cmd := &cobra.Command{
		Use:   "prices SYMBOL",
		Short: "Print cleaned price history as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			series, err := app.orchestrator.Prices(cmdContext(cmd), args[0], models.QueryParams{Period: period, Interval: interval})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), series)
		},
	}
	cmd.Flags().StringVar(&period, "period", models.DefaultQuery.Period, "history window (1d,5d,1mo,3mo,6mo,1y,2y,5y,10y,ytd,max)")
	cmd.Flags().StringVar(&interval, "interval", models.DefaultQuery.Interval, "bar interval (1m..3mo)")
	return cmd
}

func newPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict SYMBOL",
		Short: "Print the next-close prediction as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			prediction, err := app.orchestrator.Predict(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), prediction)
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats SYMBOL",
		Short: "Print one-year summary statistics as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.orchestrator.Stats(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// application is the wired service graph shared by the server and the one-shot commands
type application struct {
	cfg          *config.Config
	log          zerolog.Logger
	orchestrator *services.ForecastOrchestrator
	catalog      *services.CompanyCatalog
}

func newApplication(ctx context.Context) (*application, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty || cfg.IsDevelopment(),
	})
	logger.SetGlobalLogger(log)

	provider := yahoo.NewClient(cfg.YahooBaseURL, cfg.ProviderTimeout, log)
	fetcher := services.NewSeriesFetcher(provider, services.NewSeriesCleaner(log), cfg.FetchMaxRetries, cfg.FetchRetryDelay, log)
	marketData := services.NewMarketDataService(fetcher, cfg.MaxConcurrentFetches)
	orchestrator := services.NewForecastOrchestrator(
		marketData,
		services.NewEstimator(log),
		services.NewStatsCalculator(),
		services.NewIndicatorCalculator(),
		log,
	)

	catalog, err := services.NewCompanyCatalog(ctx, cfg.FirestoreProject, cfg.CompaniesFile, log)
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}

	return &application{
		cfg:          cfg,
		log:          log,
		orchestrator: orchestrator,
		catalog:      catalog,
	}, nil
}

func (a *application) Close() {
	if err := a.catalog.Close(); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close company catalog")
	}
}

func runServe(ctx context.Context) error {
	a, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	app := handlers.NewApp(handlers.AppConfig{
		AllowOrigins:       a.cfg.AllowOrigins,
		RateLimitPerMinute: a.cfg.RateLimitPerMinute,
		RequestTimeout:     requestTimeout,
		Version:            version,
	}, a.orchestrator, a.catalog, a.log)

	// Graceful shutdown
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(":" + a.cfg.Port)
	}()

	a.log.Info().
		Str("port", a.cfg.Port).
		Str("environment", a.cfg.Environment).
		Str("provider", a.cfg.YahooBaseURL).
		Msg("Stock API started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return fmt.Errorf("server stopped: %w", err)
	case <-quit:
	}

	a.log.Info().Msg("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info().Msg("Server shutdown complete")
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
