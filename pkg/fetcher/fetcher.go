package fetcher

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
)

// LogFetcher defines the interface for fetching logs and block headers from the blockchain.
// This abstraction allows for easier testing and alternative implementations.
type LogFetcher interface {
	// SetMode changes the fetcher's operating mode.
	SetMode(mode FetchMode)

	// GetMode returns the current operating mode.
	GetMode() FetchMode

	// FetchRange fetches logs and headers for a specific block range.
	FetchRange(ctx context.Context, fromBlock, toBlock uint64) (*FetchResult, error)

	// FetchNext fetches the next chunk after lastIndexedBlock. It blocks until
	// the trusted head moves past lastIndexedBlock or ctx is done.
	FetchNext(ctx context.Context, lastIndexedBlock uint64) (*FetchResult, error)
}

// FetchMode represents the operating mode of the log fetcher.
type FetchMode string

const (
	// ModeBackfill fetches historical blocks in chunks
	ModeBackfill FetchMode = "backfill"
	// ModeLive tails new blocks as they arrive
	ModeLive FetchMode = "live"
)

// String returns the string representation of the mode.
func (m FetchMode) String() string {
	return string(m)
}

// FetchResult contains the results of a log fetch operation. ToBlock may be
// lower than requested when the provider asked for a smaller range.
type FetchResult struct {
	Logs []types.Log
	// Headers holds the blocks that have a log or a block callback, and ToBlock.
	Headers   map[uint64]*types.Header
	FromBlock uint64
	ToBlock   uint64
}
