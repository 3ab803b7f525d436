package indexer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Batch is a contiguous block range delivered to an indexer. Logs are
// ordered by (block, log index). Headers holds every block that has a log
// or a block callback in the range.
type Batch struct {
	FromBlock uint64
	ToBlock   uint64
	Logs      []types.Log
	Headers   map[uint64]*types.Header
}

// Indexer defines the interface a chain indexer implements.
// Indexers receive ordered batches from the downloader of their chain.
type Indexer interface {
	// Name identifies the indexer in logs and metrics.
	Name() string

	// ChainID is the chain the indexer follows.
	ChainID() uint64

	// EventsToIndex returns a map of contract addresses to their event topic hashes.
	// The downloader filters eth_getLogs with it.
	EventsToIndex() map[common.Address]map[common.Hash]struct{}

	// StartBlock returns the first block the indexer wants.
	StartBlock() uint64

	// CallbackBlocks lists the blocks in [from, to] that have a block callback.
	// The downloader fetches their headers along with those of log blocks.
	CallbackBlocks(from, to uint64) []uint64

	// HandleLogs applies a batch. Every event and block callback in it is
	// applied exactly once, also when the batch is redelivered after an error.
	HandleLogs(ctx context.Context, batch Batch) error

	// HandleReorg handles a blockchain reorganization starting from the given block number.
	HandleReorg(ctx context.Context, blockNum uint64) error
}
