package downloader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goran-ethernal/DepositIndexor/internal/common"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/internal/metrics"
	irpc "github.com/goran-ethernal/DepositIndexor/internal/rpc"
	"github.com/goran-ethernal/DepositIndexor/internal/types"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
	pkgdownloader "github.com/goran-ethernal/DepositIndexor/pkg/downloader"
	"github.com/goran-ethernal/DepositIndexor/pkg/fetcher"
	"github.com/goran-ethernal/DepositIndexor/pkg/indexer"
	"github.com/goran-ethernal/DepositIndexor/pkg/rpc"
)

// Compile-time check to ensure Downloader implements pkgdownloader.Downloader interface.
var _ pkgdownloader.Downloader = (*Downloader)(nil)

var (
	ErrNoIndexer         = errors.New("no indexer registered")
	ErrIndexerRegistered = errors.New("indexer already registered")
)

// Downloader follows the trusted head of one chain and feeds every fetched
// range to the chain indexer, saving a checkpoint after each batch.
type Downloader struct {
	cfg         config.ChainConfig
	rpc         rpc.EthClient
	syncManager pkgdownloader.SyncManager
	log         *logger.Logger
	fetchLog    *logger.Logger

	indexer    indexer.Indexer
	logFetcher fetcher.LogFetcher

	// sleep waits between retries; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates the downloader of one chain.
func New(
	cfg config.ChainConfig,
	rpcClient rpc.EthClient,
	syncManager pkgdownloader.SyncManager,
	log *logger.Logger,
) (*Downloader, error) {
	if rpcClient == nil {
		return nil, errors.New("RPC client is required")
	}
	if syncManager == nil {
		return nil, errors.New("SyncManager is required")
	}
	if log == nil {
		return nil, errors.New("Logger is required")
	}
	cfg.ApplyDefaults()
	if _, err := types.ParseBlockFinality(cfg.Finality); err != nil {
		return nil, fmt.Errorf("invalid finality configuration: %w", err)
	}

	d := &Downloader{
		cfg:         cfg,
		rpc:         rpcClient,
		syncManager: syncManager,
		log:         log.WithComponent(common.ComponentDownloader).WithChain(cfg.ChainID),
		fetchLog:    log.WithComponent(common.ComponentFetcher).WithChain(cfg.ChainID),
		sleep:       sleepCtx,
	}

	d.log.Info("downloader initialized")

	return d, nil
}

// RegisterIndexer registers the indexer of the chain. A downloader serves
// exactly one indexer.
func (d *Downloader) RegisterIndexer(idx indexer.Indexer) error {
	if d.indexer != nil {
		return ErrIndexerRegistered
	}
	if idx.ChainID() != d.cfg.ChainID {
		return fmt.Errorf("indexer %s is bound to chain %d, downloader to chain %d",
			idx.Name(), idx.ChainID(), d.cfg.ChainID)
	}

	finality, _ := types.ParseBlockFinality(d.cfg.Finality)
	events := idx.EventsToIndex()

	d.indexer = idx
	d.logFetcher = NewLogFetcher(LogFetcherConfig{
		ChainID:        d.cfg.ChainID,
		ChunkSize:      d.cfg.ChunkSize,
		Finality:       finality,
		PollInterval:   d.cfg.PollInterval.Duration,
		Events:         events,
		CallbackBlocks: idx.CallbackBlocks,
	}, d.rpc, d.fetchLog)

	d.log.Infow("indexer registered",
		"indexer", idx.Name(),
		"start_block", idx.StartBlock(),
		"total_addresses", len(events),
	)

	return nil
}

// Download runs until ctx is done or a batch keeps failing after every retry.
func (d *Downloader) Download(ctx context.Context) error {
	if d.indexer == nil {
		return ErrNoIndexer
	}

	d.log.Info("starting download process")

	state, err := d.syncManager.GetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sync state: %w", err)
	}

	lastIndexedBlock := state.LastIndexedBlock
	if start := d.indexer.StartBlock(); !state.Started() || lastIndexedBlock+1 < start {
		lastIndexedBlock = 0
		if start > 0 {
			lastIndexedBlock = start - 1
		}
		d.log.Infow("starting fresh download", "start_block", start)
	} else {
		d.log.Infow("resuming download", "last_indexed_block", lastIndexedBlock)
	}

	// live mode is re-entered once the fetcher catches up again
	d.logFetcher.SetMode(fetcher.ModeBackfill)

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			d.log.Info("download cancelled")
			return err
		}

		toBlock, err := d.step(ctx, lastIndexedBlock)
		if err == nil {
			lastIndexedBlock = toBlock
			attempt = 0
			continue
		}
		if ctx.Err() != nil {
			d.log.Info("download cancelled")
			return ctx.Err()
		}

		attempt++
		metrics.ComponentHealthSet(common.ComponentDownloader, false)
		if attempt >= d.cfg.Retry.MaxAttempts {
			d.log.Errorw("batch failed, giving up", "error", err, "last_block", lastIndexedBlock, "attempts", attempt)
			return fmt.Errorf("chain %d after block %d: %w", d.cfg.ChainID, lastIndexedBlock, err)
		}

		backoff := irpc.CalculateBackoff(attempt+1, d.cfg.Retry)
		d.log.Warnw("batch failed, retrying",
			"error", err,
			"last_block", lastIndexedBlock,
			"attempt", attempt,
			"backoff", backoff,
		)
		metrics.BatchRetryInc(d.cfg.ChainID)

		if err := d.sleep(ctx, backoff); err != nil {
			return err
		}
	}
}

// step fetches the range after lastIndexedBlock, hands it to the indexer
// and saves the checkpoint. It returns the new last indexed block.
func (d *Downloader) step(ctx context.Context, lastIndexedBlock uint64) (uint64, error) {
	result, err := d.logFetcher.FetchNext(ctx, lastIndexedBlock)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch logs: %w", err)
	}

	d.log.Debugw("processing logs",
		"count", len(result.Logs),
		"from_block", result.FromBlock,
		"to_block", result.ToBlock,
	)

	err = d.indexer.HandleLogs(ctx, indexer.Batch{
		FromBlock: result.FromBlock,
		ToBlock:   result.ToBlock,
		Logs:      result.Logs,
		Headers:   result.Headers,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to handle logs: %w", err)
	}

	blockHash := result.Headers[result.ToBlock].Hash()
	mode := d.logFetcher.GetMode()
	if err := d.syncManager.SaveCheckpoint(ctx, result.ToBlock, blockHash, mode); err != nil {
		return 0, fmt.Errorf("failed to save checkpoint: %w", err)
	}

	metrics.LastIndexedBlockSet(d.cfg.ChainID, result.ToBlock)
	metrics.ComponentHealthSet(common.ComponentDownloader, true)

	d.log.Infow("checkpoint saved",
		"block", result.ToBlock,
		"block_hash", blockHash.Hex(),
		"mode", mode,
		"logs_processed", len(result.Logs),
	)

	return result.ToBlock, nil
}

// Close releases the RPC client.
func (d *Downloader) Close() error {
	d.log.Info("closing downloader")

	if d.rpc != nil {
		d.rpc.Close()
	}

	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
