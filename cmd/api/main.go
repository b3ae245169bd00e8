package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/cache"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/catalog"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/database"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/events"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/search"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/api/handlers"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/api/middleware"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/api/routes"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/providers"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/repositories"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/clients/postgres"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/clients/redis"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/clients/typesense"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
	"github.com/chatgptnotes/adamrit.in-sub001/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("failed to shut down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize metrics")
	}

	// PostgreSQL backs visit records and, optionally, the catalog
	var pgClient *postgres.Client
	if cfg.Database.Enabled {
		pgClient, err = postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
		}
		defer pgClient.Close()
		log.Info().Msg("connected to PostgreSQL")
	}

	catalogRepo, err := catalogSource(cfg, pgClient, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid catalog source")
	}
	refCatalog, err := services.LoadCatalog(ctx, catalogRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load catalog")
	}

	// Redis holds sessions and fans out session events. Without it both fall
	// back to process memory.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, using in-memory sessions")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, "cascade:")
			eventBus = events.NewRedisEventBus(redisClient)
			log.Info().Msg("connected to Redis")
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter()
		eventBus = events.NewMemoryEventBus()
	}
	defer eventBus.Close()

	var searchRepo repositories.CatalogSearchRepository
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Typesense, using local search")
		} else {
			searchRepo = search.NewCatalogSearchAdapter(tsClient)
			log.Info().Msg("connected to Typesense")
		}
	}

	var visitRepo repositories.VisitRecordRepository
	if pgClient != nil {
		visitRepo = database.NewVisitRecordAdapter(pgClient, metrics)
	}

	catalogService := services.NewCatalogService(refCatalog, searchRepo)
	sessionService := services.NewSessionService(
		services.NewCascadeResolver(refCatalog),
		cache.NewSessionCacheAdapter(cacheProvider, cfg.Session.TTLSeconds),
		visitRepo,
		eventBus,
		metrics,
	)

	catalogHandler := handlers.NewCatalogHandler(catalogService, sessionService)
	pricingHandler := handlers.NewPricingHandler(services.NewPricingAdjuster(refCatalog), metrics)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	sseHandler := handlers.NewSSEHandler(eventBus, sessionService)

	cacheMiddleware := middleware.NewCacheMiddleware(cacheProvider, refCatalog.Version(), metrics, middleware.DefaultCacheRoutes())

	router := routes.NewRouter(
		catalogHandler,
		pricingHandler,
		sessionHandler,
		sseHandler,
		cacheMiddleware,
		middleware.CORSConfig{AllowedOrigins: middleware.ParseAllowedOrigins(cfg.Server.AllowedOrigins)},
		metrics,
	)

	// WriteTimeout stays zero so session streams are not cut off
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", addr).
			Str("catalog_version", refCatalog.Version()).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Int("stream_clients", sseHandler.GetClientCount()).Msg("server stopped")
}

func catalogSource(cfg *config.Config, pgClient *postgres.Client, metrics *observability.Metrics) (repositories.CatalogRepository, error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourceEmbedded:
		return catalog.NewYAMLCatalogAdapter(""), nil
	case config.CatalogSourceFile:
		return catalog.NewYAMLCatalogAdapter(cfg.Catalog.Path), nil
	case config.CatalogSourcePostgres:
		if pgClient == nil {
			return nil, fmt.Errorf("catalog source %q needs a database connection", cfg.Catalog.Source)
		}
		return database.NewCatalogAdapter(pgClient, cfg.Catalog.Version, metrics), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}
