package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goran-ethernal/DepositIndexor/internal/common"
	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/db"
	"github.com/goran-ethernal/DepositIndexor/internal/downloader"
	"github.com/goran-ethernal/DepositIndexor/internal/entities"
	"github.com/goran-ethernal/DepositIndexor/internal/handlers"
	"github.com/goran-ethernal/DepositIndexor/internal/indexer"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/internal/metrics"
	"github.com/goran-ethernal/DepositIndexor/internal/migrations"
	"github.com/goran-ethernal/DepositIndexor/internal/rpc"
	"github.com/goran-ethernal/DepositIndexor/internal/snapshot"
	"github.com/goran-ethernal/DepositIndexor/internal/store"
	"github.com/goran-ethernal/DepositIndexor/pkg/api"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
	pkgdownloader "github.com/goran-ethernal/DepositIndexor/pkg/downloader"
)

const stopTimeout = 5 * time.Second

// components builds a logger per component from one logging config.
type components struct {
	cfg config.LoggingConfig
	err error
}

func (c *components) get(name string) *logger.Logger {
	if c.err != nil {
		return logger.NewNopLogger()
	}
	l, err := logger.NewComponentLoggerFromConfig(name, c.cfg)
	if err != nil {
		c.err = err
		return logger.NewNopLogger()
	}
	return l
}

// run indexes every configured chain until ctx is done or one chain fails.
func run(ctx context.Context, cfg *config.Config) error {
	logs := &components{cfg: *cfg.Logging}
	log := logs.get(common.ComponentIndexer)
	if logs.err != nil {
		return logs.err
	}
	logger.SetDefaultLogger(log)

	database, err := db.NewSQLiteDBFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	log.Info("running database migrations")
	if err := migrations.RunMigrations(logs.get(common.ComponentStore), database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	backend, err := store.NewSQLiteBackend(database, logs.get(common.ComponentStore))
	if err != nil {
		return fmt.Errorf("failed to create entity store: %w", err)
	}
	tables := store.NewTables(backend)

	chains, err := rpc.DialChains(ctx, cfg.Chains, *cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to connect to chains: %w", err)
	}
	defer chains.Close()

	reader := contracts.NewEthReader(chains, cfg.Chains)
	defer reader.Close()

	opts := []contracts.Option{
		contracts.WithPinnedReads(cfg.Contracts.PinReadsToBlock),
		contracts.WithLogger(logs.get(common.ComponentFetcher)),
	}
	if cfg.Contracts.Cache != nil {
		cache, err := contracts.NewRedisCache(ctx, cfg.Contracts.Cache)
		if err != nil {
			return err
		}
		defer cache.Close()
		opts = append(opts, contracts.WithRemoteCache(cache))
	}

	resolver := entities.NewResolver(tables, contracts.NewFetcher(reader, opts...))
	h := handlers.New(
		resolver,
		snapshot.NewManager(resolver, logs.get(common.ComponentSnapshot)),
		logs.get(common.ComponentHandlers),
	)

	downloaders := make([]*downloader.Downloader, 0, len(cfg.Chains))
	for _, chain := range cfg.Chains {
		dl, err := newChainDownloader(ctx, chain, chains, database, tables, h, logs)
		if err != nil {
			return err
		}
		downloaders = append(downloaders, dl)
	}
	if logs.err != nil {
		return logs.err
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics, logs.get(common.ComponentMetrics))
		if err := metricsServer.Start(gctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			if err := metricsServer.Stop(stopCtx); err != nil {
				log.Warnw("failed to stop metrics server", "error", err)
			}
		}()
	}

	if cfg.API != nil && cfg.API.Enabled {
		syncStates := api.SyncStateReaderFunc(func(_ context.Context, chainID uint64) (*pkgdownloader.SyncState, error) {
			return downloader.LoadSyncState(database, chainID)
		})
		apiServer := api.NewServer(cfg.API, backend, syncStates, chains.IDs(), logs.get(common.ComponentAPI))
		g.Go(func() error {
			return apiServer.Start(gctx)
		})
	}

	for _, dl := range downloaders {
		g.Go(func() error {
			return dl.Download(gctx)
		})
	}

	log.Infow("indexer started", "chains", chains.IDs(), "version", version)

	err = g.Wait()
	log.Infow("indexer stopped", "error", err)
	return err
}

// newChainDownloader wires the router, indexer and downloader of one chain.
func newChainDownloader(
	ctx context.Context,
	chain config.ChainConfig,
	chains *rpc.Chains,
	database *sql.DB,
	tables *store.Tables,
	h *handlers.Handlers,
	logs *components,
) (*downloader.Downloader, error) {
	client, err := chains.Client(chain.ChainID)
	if err != nil {
		return nil, err
	}

	syncManager, err := downloader.NewSyncManager(ctx, database, chain.ChainID,
		logs.get(common.ComponentSyncManager).WithChain(chain.ChainID))
	if err != nil {
		return nil, err
	}

	idx := indexer.New(chain, handlers.NewRouter(h, chain), tables,
		logs.get(common.ComponentIndexer).WithChain(chain.ChainID))

	dl, err := downloader.New(chain, client, syncManager,
		logs.get(common.ComponentDownloader).WithChain(chain.ChainID))
	if err != nil {
		return nil, fmt.Errorf("chain %d: %w", chain.ChainID, err)
	}

	if err := dl.RegisterIndexer(idx); err != nil {
		return nil, fmt.Errorf("chain %d: %w", chain.ChainID, err)
	}

	return dl, nil
}
