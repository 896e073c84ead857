package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"enroute-service/internal/domain/repository"
	"enroute-service/internal/infrastructure/config"
	"enroute-service/internal/infrastructure/oauth"
	"enroute-service/internal/infrastructure/persistence"
	"enroute-service/internal/infrastructure/router"
	"enroute-service/internal/interface/aeroapi"
	"enroute-service/internal/interface/api"
	"enroute-service/internal/interface/opensky"
	storeRepo "enroute-service/internal/interface/repository"
	"enroute-service/internal/usecase"
	"enroute-service/pkg/logger"
	"enroute-service/pkg/metrics"
	"enroute-service/templates"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Create logger
	log := logger.NewLogger("info")
	log.Info("Starting Enroute Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}
	if cfg.LogLevel != "info" {
		log = logger.NewLogger(cfg.LogLevel)
	}
	defer log.Sync()

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics("enroute", nil)

	// Set up the store backend and the store context
	backend, airlines, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", "driver", cfg.StoreDriver, "error", err)
	}
	store, err := persistence.NewStoreContext(ctx, backend, persistence.NewHub(log, m), log, m)
	if err != nil {
		log.Fatal("Failed to load store", "driver", cfg.StoreDriver, "error", err)
	}

	// Set up flight data providers
	aeroClient := aeroapi.NewClient(cfg.AeroAPIKey, cfg.AeroAPIBaseURL, log)
	openSkyOAuth := oauth.NewOpenSkyOAuth(cfg.OpenSkyClientID, cfg.OpenSkyClientSecret, cfg.OpenSkyTokenURL, log)
	openSkyClient := opensky.NewClient(cfg.OpenSkyBaseURL, openSkyOAuth.HTTPClient(ctx, 15*time.Second), log)

	providers := router.NewProviderRouter(log, m)
	if cfg.AeroAPIKey != "" {
		providers.Register(aeroClient, cfg.AeroAPIRatePerMinute)
	} else {
		log.Warn("AEROAPI_KEY not set, airport metadata and scheduled arrivals are unavailable")
	}
	providers.Register(openSkyClient, cfg.OpenSkyRatePerMinute)

	// Set up use cases
	resolver := usecase.NewAirportResolver(store, aeroClient, log, m)
	merger := usecase.NewMergeEngine(store, resolver, log, m)
	pruner := usecase.NewFlightPruner(store, usecase.RetentionPolicy{MaxAge: cfg.RetentionMaxAge}, log, m)

	// Set up change notifications
	changeRouter := router.NewChangeRouter(log)
	changeRouter.Register(templates.NewFlightChangedTemplate())
	changeRouter.Register(templates.NewFlightRemovedTemplate())
	changeRouter.Register(templates.NewAirportChangedTemplate())

	var notificationRepo repository.NotificationRepository
	if cfg.WebhookURL != "" {
		notificationRepo = storeRepo.NewWebhookRepository(cfg.WebhookURL, cfg.WebhookToken, log)
	} else {
		notificationRepo = storeRepo.NewLogNotificationRepository(log)
	}
	notifier := usecase.NewChangeNotifier(store, changeRouter, notificationRepo, log, cfg.Airports...)
	if airlines != nil {
		notifier.WithAirlines(airlines)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return notifier.Run(gctx) })
	g.Go(func() error {
		pruner.Run(gctx, cfg.PruneInterval)
		return nil
	})

	// Resolve every configured airport and start polling its incoming flights
	fetchCfg := usecase.FetchConfig{Lookahead: cfg.PollLookahead, Interval: cfg.PollInterval}
	var incoming []*usecase.IncomingFlights
	for _, code := range cfg.Airports {
		res, err := resolver.Resolve(ctx, code)
		if err != nil {
			log.Error("Failed to resolve airport", "icao", code, "error", err)
			continue
		}
		flights, err := usecase.NewIncomingFlights(res.Airport.ICAO, providers, merger, log, m)
		if err != nil {
			log.Error("Failed to set up incoming flights", "icao", code, "error", err)
			continue
		}
		if err := flights.Fetch(fetchCfg); err != nil {
			log.Error("Failed to start polling", "icao", code, "error", err)
			continue
		}
		incoming = append(incoming, flights)
	}

	// Set up HTTP server for metrics and read endpoints
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})
	api.NewAirportHandler(store, log).Register(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g.Go(func() error {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Wait for interrupt signal or a failed component
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info("Received signal", "signal", sig)
	case <-gctx.Done():
		log.Error("Component stopped unexpectedly", "error", context.Cause(gctx))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}
	for _, flights := range incoming {
		flights.Stop()
	}

	cancel() // Cancel the context to stop all goroutines
	if err := g.Wait(); err != nil {
		log.Error("Component error", "error", err)
	}
	resolver.Close()

	if err := store.Close(shutdownCtx); err != nil {
		log.Error("Store close error", "error", err)
	}

	log.Info("Enroute Service stopped")
}

// openStore connects the backend selected by STORE_DRIVER. The airline
// directory is only available on PostgreSQL and is nil otherwise.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.AirportStore, repository.AirlineRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		log.Info("Connecting to MongoDB")
		client, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			return nil, nil, err
		}
		store, err := storeRepo.NewMongoAirportStore(ctx, persistence.GetDatabase(client, cfg.MongoDB))
		return store, nil, err
	case config.DriverPostgres:
		log.Info("Connecting to PostgreSQL")
		db, err := persistence.NewPostgresDB(cfg.PostgresURI)
		if err != nil {
			return nil, nil, err
		}
		store, err := storeRepo.NewGormAirportStore(db)
		if err != nil {
			return nil, nil, err
		}
		airlines, err := storeRepo.NewGormAirlineRepository(db)
		if err != nil {
			return nil, nil, err
		}
		return store, airlines, nil
	case config.DriverSQLite:
		log.Info("Opening SQLite store", "path", cfg.SQLitePath)
		db, err := persistence.NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := storeRepo.NewSQLiteAirportStore(db)
		return store, nil, err
	default:
		log.Info("Using in-memory store")
		return storeRepo.NewMemoryAirportStore(), nil, nil
	}
}
