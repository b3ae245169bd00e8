package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/catalog"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/database"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/search"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/repositories"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/clients/postgres"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/clients/typesense"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
	"github.com/chatgptnotes/adamrit.in-sub001/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the catalog collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		var err error
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid interval %q: %v\n", intervalValue, err)
			os.Exit(1)
		}
		if interval <= 0 {
			fmt.Fprintln(os.Stderr, "interval must be greater than zero")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Server.Env)

	var repo repositories.CatalogRepository
	switch cfg.Catalog.Source {
	case config.CatalogSourcePostgres:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		defer pgClient.Close()
		repo = database.NewCatalogAdapter(pgClient, cfg.Catalog.Version, nil)
	case config.CatalogSourceFile:
		repo = catalog.NewYAMLCatalogAdapter(cfg.Catalog.Path)
	default:
		repo = catalog.NewYAMLCatalogAdapter("")
	}

	refCatalog, err := services.LoadCatalog(ctx, repo)
	if err != nil {
		return err
	}

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.CatalogCollection).Msg("dropping catalog collection")
		if err := tsClient.DropSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to drop catalog collection")
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	count, err := services.NewCatalogService(refCatalog, search.NewCatalogSearchAdapter(tsClient)).Reindex(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("entries", count).
		Str("version", refCatalog.Version()).
		Msg("catalog reindexed")
	return nil
}
