package downloader

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/pkg/fetcher"
)

// SyncManager defines the interface for managing the synchronization state of one chain.
// This abstraction allows for easier testing and alternative implementations.
type SyncManager interface {
	// ChainID is the chain whose state is managed.
	ChainID() uint64

	// GetLastIndexedBlock returns the last successfully indexed block number.
	GetLastIndexedBlock(ctx context.Context) (uint64, error)

	// GetState returns the current synchronization state.
	GetState(ctx context.Context) (*SyncState, error)

	// SaveCheckpoint saves a checkpoint with the given block number, hash, and mode.
	SaveCheckpoint(ctx context.Context, blockNum uint64, blockHash common.Hash, mode fetcher.FetchMode) error

	// SetMode updates the synchronization mode.
	SetMode(ctx context.Context, mode fetcher.FetchMode) error
}

// SyncState represents the synchronization state of a chain.
// Uses meddler tags for automatic struct-to-db mapping.
type SyncState struct {
	ChainID              int64       `meddler:"chain_id,pk" json:"chain_id"`
	LastIndexedBlock     uint64      `meddler:"last_indexed_block" json:"last_indexed_block"`
	LastIndexedBlockHash common.Hash `meddler:"last_indexed_block_hash,hash" json:"last_indexed_block_hash"`
	LastIndexedTimestamp int64       `meddler:"last_indexed_timestamp" json:"last_indexed_timestamp"`
	Mode                 string      `meddler:"mode" json:"mode"`
}

// GetMode returns the Mode as a fetcher.FetchMode type.
func (s *SyncState) GetMode() fetcher.FetchMode {
	return fetcher.FetchMode(s.Mode)
}

// Started reports whether a checkpoint was ever saved.
func (s *SyncState) Started() bool {
	return s.LastIndexedTimestamp != 0
}
