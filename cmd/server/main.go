/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the learning hub server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load the YAML config
  2. Initialize the logger and SQLite store
  3. Load typed settings from the persisted config entries
  4. Build the ledger services and the sync provider registry
  5. Ensure the bonus fund and the required config rows exist
  6. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file path (optional)
  -addr    Listen address, overrides the config file
  -db      SQLite database path, overrides the config file
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Process configuration
  - store/sqlite/sqlite.go: Database implementation
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

	"github.com/hearthside/learning-hub/api"
	"github.com/hearthside/learning-hub/catalog"
	"github.com/hearthside/learning-hub/config"
	"github.com/hearthside/learning-hub/ledger"
	"github.com/hearthside/learning-hub/logger"
	"github.com/hearthside/learning-hub/store/sqlite"
	"github.com/hearthside/learning-hub/syncfeed"
)

func main() {
	configPath := flag.String("config", "", "YAML config file path")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log := logger.Get()
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to initialize database")
	}
	defer store.Close()

	ctx := context.Background()

	if err := seedConfig(ctx, store); err != nil {
		log.Fatal().Err(err).Msg("failed to seed config entries")
	}

	settings, err := ledger.LoadSettings(ctx, store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}

	engine := ledger.NewEngine(store, settings)
	alloc := ledger.NewAllocator(store)
	tracker := ledger.NewTracker(store, settings)
	recorder := ledger.NewRecorder(store, settings)
	results := ledger.NewResults(store, settings)

	if _, err := alloc.EnsureFund(ctx, "bonus tasks", settings.WeeklyTopup); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure the bonus fund")
	}

	registry := syncfeed.NewRegistry()
	for _, p := range cfg.Sync.Providers {
		provider := syncfeed.NewHTTPProvider(p.Code, p.BaseURL, p.APIKey)
		if err := registry.Register(provider); err != nil {
			log.Fatal().Err(err).Str("provider", p.Code).Msg("failed to register sync provider")
		}
		if err := ensureProviderRecord(ctx, store, p.Code); err != nil {
			log.Fatal().Err(err).Str("provider", p.Code).Msg("failed to record sync provider")
		}
	}
	feed := syncfeed.NewService(store, store, registry, log)

	handler := api.NewHandler(engine, alloc, tracker, recorder, results, store, feed, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// seedConfig creates the config rows the settings loader and the readiness
// check know about, without overwriting values already set.
func seedConfig(ctx context.Context, store catalog.Store) error {
	seeds := []struct {
		key         string
		description string
		required    bool
	}{
		{ledger.KeyGradeMinutes, "JSON map of grade value to signed minutes", true},
		{ledger.KeyWeeklyTopup, "bonus-task slots added by each weekly calculation", true},
		{ledger.KeyReviewThresholds, "JSON map of grade value to review auto-close count", false},
		{ledger.KeyHomeworkBonusOnTime, "minutes for completing a homework on time", false},
		{ledger.KeyHomeworkPenaltyLate, "minutes (negative) for closing a homework overdue", false},
		{ledger.KeyEscalationThreshold, "grade value at which auto-synced grades escalate", false},
	}
	for _, seed := range seeds {
		existing, err := store.ConfigEntryByKey(ctx, seed.key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := store.SetConfig(ctx, seed.key, nil, seed.description, seed.required); err != nil {
			return err
		}
	}
	return nil
}

// ensureProviderRecord creates the catalog row for a configured provider
// when it is missing. The row starts inactive and unlinked; activation
// happens through the API once a school is attached.
func ensureProviderRecord(ctx context.Context, store catalog.Store, code string) error {
	existing, err := store.ProviderByCode(ctx, code)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return store.CreateProvider(ctx, &catalog.SyncProvider{Code: code})
}
