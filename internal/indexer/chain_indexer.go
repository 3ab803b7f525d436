// Package indexer applies the ordered logs and block callbacks of one chain
// to the entity store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/goran-ethernal/DepositIndexor/internal/handlers"
	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/internal/metrics"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/internal/store"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
	"github.com/goran-ethernal/DepositIndexor/pkg/indexer"
)

// Compile-time check to ensure ChainIndexer implements indexer.Indexer interface.
var _ indexer.Indexer = (*ChainIndexer)(nil)

// ErrReorgNotSupported is returned by HandleReorg. The downloader follows
// finalized or safe heads only, and snapshots and running totals cannot be
// rewound.
var ErrReorgNotSupported = errors.New("reorgs are not supported")

// ChainIndexer runs every log of a chain through the router, each in its
// own store transaction together with the chain cursor.
type ChainIndexer struct {
	chain       config.ChainConfig
	router      *handlers.Router
	tables      *store.Tables
	log         *logger.Logger
	startBlocks map[common.Address]uint64
}

// New creates the indexer of chain.
func New(chain config.ChainConfig, router *handlers.Router, tables *store.Tables, log *logger.Logger) *ChainIndexer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	startBlocks := make(map[common.Address]uint64, len(chain.Contracts))
	for _, c := range chain.Contracts {
		addr := c.HexAddress()
		if start, ok := startBlocks[addr]; !ok || c.StartBlock < start {
			startBlocks[addr] = c.StartBlock
		}
	}

	return &ChainIndexer{
		chain:       chain,
		router:      router,
		tables:      tables,
		log:         log,
		startBlocks: startBlocks,
	}
}

func (c *ChainIndexer) Name() string {
	if c.chain.Name != "" {
		return c.chain.Name
	}
	return fmt.Sprintf("chain-%d", c.chain.ChainID)
}

func (c *ChainIndexer) ChainID() uint64 {
	return c.chain.ChainID
}

func (c *ChainIndexer) EventsToIndex() map[common.Address]map[common.Hash]struct{} {
	return c.router.EventsByAddress()
}

// StartBlock returns the configured chain start block, or the earliest
// contract start block when none is set.
func (c *ChainIndexer) StartBlock() uint64 {
	if c.chain.StartBlock != 0 || len(c.startBlocks) == 0 {
		return c.chain.StartBlock
	}
	return slices.Min(slices.Collect(maps.Values(c.startBlocks)))
}

func (c *ChainIndexer) CallbackBlocks(from, to uint64) []uint64 {
	return c.chain.Snapshot.DueBlocks(from, to)
}

// Cursor returns the last applied step, if any.
func (c *ChainIndexer) Cursor(ctx context.Context) (model.IndexerCursor, bool, error) {
	return c.tables.Cursors.Get(ctx, ids.IndexerCursor(c.chain.ChainID))
}

// HandleLogs applies the batch in (block, log index) order, running the
// block callback of block b after every log of blocks <= b. Steps the
// cursor already covers are skipped, so a redelivered batch resumes where
// the failed one stopped.
func (c *ChainIndexer) HandleLogs(ctx context.Context, batch indexer.Batch) error {
	start := time.Now()

	cursor, resumed, err := c.Cursor(ctx)
	if err != nil {
		return fmt.Errorf("failed to read cursor: %w", err)
	}

	logs := filterLogs(batch.Logs, c.startBlocks)
	sortLogs(logs)
	steps := schedule(logs, c.CallbackBlocks(batch.FromBlock, batch.ToBlock))

	var applied, skipped, callbacks int
	for _, s := range steps {
		if resumed && cursor.Covers(s.block, s.logIndex(), s.callback) {
			skipped++
			continue
		}

		if s.callback {
			err = c.applyCallback(ctx, s.block, batch.Headers[s.block])
			callbacks++
		} else {
			err = c.applyLog(ctx, *s.log, batch.Headers[s.block])
			applied++
		}
		if err != nil {
			return err
		}
	}

	metrics.BatchProcessed(c.chain.ChainID, applied, batch.FromBlock, batch.ToBlock, time.Since(start))

	c.log.Infow("applied batch",
		"from_block", batch.FromBlock,
		"to_block", batch.ToBlock,
		"logs", applied,
		"callbacks", callbacks,
		"skipped", skipped,
		"duration", time.Since(start),
	)

	return nil
}

func (c *ChainIndexer) applyLog(ctx context.Context, log types.Log, header *types.Header) error {
	if header == nil {
		return fmt.Errorf("missing header of block %d", log.BlockNumber)
	}

	meta := model.Origin{
		ChainID:   c.chain.ChainID,
		Block:     log.BlockNumber,
		Timestamp: header.Time,
		LogIndex:  log.Index,
		TxHash:    log.TxHash,
		Address:   log.Address,
	}

	return c.tables.Tx(ctx, func(ctx context.Context) error {
		if _, err := c.router.Route(ctx, meta, log); err != nil {
			return err
		}
		return c.advance(ctx, log.BlockNumber, log.Index, false)
	})
}

func (c *ChainIndexer) applyCallback(ctx context.Context, block uint64, header *types.Header) error {
	if header == nil {
		// the router falls back to the block timestamp effect
		header = &types.Header{Number: new(big.Int).SetUint64(block)}
	}

	return c.tables.Tx(ctx, func(ctx context.Context) error {
		if err := c.router.HandleBlock(ctx, header); err != nil {
			return fmt.Errorf("block callback at %d: %w", block, err)
		}
		return c.advance(ctx, block, 0, true)
	})
}

func (c *ChainIndexer) advance(ctx context.Context, block uint64, logIndex uint, callback bool) error {
	cursor := model.IndexerCursor{
		Key:      model.Key{ID: ids.IndexerCursor(c.chain.ChainID), ChainID: c.chain.ChainID},
		Block:    block,
		LogIndex: logIndex,
		Callback: callback,
	}
	if err := c.tables.Cursors.Set(ctx, cursor); err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}

// HandleReorg always fails with ErrReorgNotSupported.
func (c *ChainIndexer) HandleReorg(_ context.Context, blockNum uint64) error {
	return fmt.Errorf("chain %d at block %d: %w", c.chain.ChainID, blockNum, ErrReorgNotSupported)
}
