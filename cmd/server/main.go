/*
main.go - Application entry point

PURPOSE:
  Loads the HVAC dataset, builds the metrics engine and serves the analytics
  API. Handles configuration, dependency injection and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, then environment)
  2. Load the dataset from JSON files or SQLite
  3. Build the record store and metrics engine
  4. Configure the HTTP router
  5. Start the reloader and the server, with graceful shutdown

COMMAND-LINE FLAGS:
  -env     Path to the .env file (default: .env)

ENVIRONMENT:
  PORT, LOG_LEVEL, DATA_SOURCE (json|sqlite), DATA_DIR, SQLITE_PATH,
  STRICT_LOAD, CORS_ALLOWED_ORIGINS, DEFAULT_PAGE_SIZE, AS_OF,
  METRICS_CALLBACK_SCOPE (all_time|windowed), REQUEST_TIMEOUT,
  RELOAD_INTERVAL (0 disables)

  AS_OF pins the engine clock (YYYY-MM-DD or RFC3339), which keeps
  demo data stable.

EXAMPLES:
  # Serve the generated JSON files
  DATA_DIR=./data ./server

  # Serve a database written by cmd/import
  DATA_SOURCE=sqlite SQLITE_PATH=./data/hvac.db ./server

SEE ALSO:
  - config/config.go: Settings and defaults
  - api/server.go: Router configuration
  - cmd/import: Copies a JSON dataset into SQLite
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warp/hvac-insights/api"
	"github.com/warp/hvac-insights/config"
	"github.com/warp/hvac-insights/factory"
	"github.com/warp/hvac-insights/generic"
	"github.com/warp/hvac-insights/hvac"
	"github.com/warp/hvac-insights/store/sqlite"
)

func main() {
	envFile := flag.String("env", "", "path to the .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.Level(cfg.Level()).With().Str("service", "hvac-insights").Logger()

	loader := factory.NewLoader(factory.WithLogger(logger), factory.WithStrict(cfg.StrictLoad))
	opts := []hvac.Option{
		hvac.WithLogger(logger),
		hvac.WithCallbackScope(cfg.MetricsCallbackScope()),
	}
	if asOf, _ := cfg.AsOfTime(); !asOf.IsZero() {
		opts = append(opts, hvac.WithClock(generic.FixedClock{At: asOf}))
		logger.Info().Time("as_of", asOf).Msg("engine clock pinned")
	}
	build := func(ctx context.Context) (*hvac.Engine, error) {
		ds, err := loadDataset(ctx, cfg, loader)
		if err != nil {
			return nil, err
		}
		return hvac.NewEngine(hvac.NewStore(ds), opts...), nil
	}

	engine, err := build(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Str("source", cfg.DataSource).Msg("failed to load dataset")
	}

	handler := api.NewHandler(engine,
		api.WithLogger(logger),
		api.WithDefaultPageSize(cfg.DefaultPageSize),
	)
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins(),
		RequestTimeout: cfg.RequestTimeout,
	})

	reloader := api.NewReloader(handler, build, cfg.ReloadInterval)
	reloader.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	reloader.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}

// loadDataset reads the configured source. SQLite data goes through the same
// reference checks as JSON files.
func loadDataset(ctx context.Context, cfg config.Config, loader *factory.Loader) (hvac.Dataset, error) {
	if cfg.DataSource != "sqlite" {
		return loader.LoadDir(cfg.DataDir)
	}

	store, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		return hvac.Dataset{}, err
	}
	defer store.Close()

	ds, err := store.LoadDataset(ctx)
	if err != nil {
		return hvac.Dataset{}, err
	}
	return loader.Accept(ds)
}
