package downloader

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"

	// registers the hash meddler
	_ "github.com/goran-ethernal/DepositIndexor/internal/db"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	pkgdownloader "github.com/goran-ethernal/DepositIndexor/pkg/downloader"
	"github.com/goran-ethernal/DepositIndexor/pkg/fetcher"
)

// Compile-time check to ensure SyncManager implements pkgdownloader.SyncManager interface.
var _ pkgdownloader.SyncManager = (*SyncManager)(nil)

const syncStateTable = "sync_state"

// SyncManager manages the checkpoint row of one chain in the sync_state table.
type SyncManager struct {
	db      *sql.DB
	chainID uint64
	log     *logger.Logger
}

// SyncState is a type alias for the public SyncState type.
// Uses meddler tags for automatic struct-to-db mapping.
type SyncState = pkgdownloader.SyncState

// NewSyncManager creates the sync manager of chainID, inserting its row on first use.
func NewSyncManager(ctx context.Context, db *sql.DB, chainID uint64, log *logger.Logger) (*SyncManager, error) {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sync_state (chain_id, mode) VALUES (?, ?)`,
		chainID, fetcher.ModeBackfill.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sync state of chain %d: %w", chainID, err)
	}

	sm := &SyncManager{
		db:      db,
		chainID: chainID,
		log:     log,
	}

	sm.log.Info("sync manager initialized")

	return sm, nil
}

func (sm *SyncManager) ChainID() uint64 {
	return sm.chainID
}

// GetLastIndexedBlock returns the last successfully indexed block number.
func (sm *SyncManager) GetLastIndexedBlock(ctx context.Context) (uint64, error) {
	var lastBlock uint64
	err := sm.db.QueryRowContext(ctx,
		`SELECT last_indexed_block FROM sync_state WHERE chain_id = ?`, sm.chainID,
	).Scan(&lastBlock)
	if err != nil {
		return 0, fmt.Errorf("failed to get last indexed block: %w", err)
	}

	return lastBlock, nil
}

// GetState returns the current synchronization state.
func (sm *SyncManager) GetState(ctx context.Context) (*SyncState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state, err := LoadSyncState(sm.db, sm.chainID)
	if err != nil {
		return nil, err
	}

	sm.log.Debugw("retrieved sync state",
		"last_block", state.LastIndexedBlock,
		"last_block_hash", state.LastIndexedBlockHash.Hex(),
		"mode", state.Mode,
	)

	return state, nil
}

// SaveCheckpoint saves a checkpoint with the given block number, hash, and mode.
func (sm *SyncManager) SaveCheckpoint(
	ctx context.Context, blockNum uint64, blockHash common.Hash, mode fetcher.FetchMode,
) error {
	state := SyncState{
		ChainID:              int64(sm.chainID), //nolint:gosec
		LastIndexedBlock:     blockNum,
		LastIndexedBlockHash: blockHash,
		LastIndexedTimestamp: time.Now().Unix(),
		Mode:                 string(mode),
	}

	if err := sm.update(ctx, &state); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	sm.log.Debugw("saved checkpoint",
		"block", blockNum,
		"block_hash", blockHash.Hex(),
		"mode", mode,
	)

	return nil
}

// SetMode updates the synchronization mode.
func (sm *SyncManager) SetMode(ctx context.Context, mode fetcher.FetchMode) error {
	state, err := sm.GetState(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current state: %w", err)
	}

	state.Mode = string(mode)

	if err := sm.update(ctx, state); err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}

	sm.log.Infow("sync mode updated", "mode", mode)

	return nil
}

func (sm *SyncManager) update(ctx context.Context, state *SyncState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return meddler.Update(sm.db, syncStateTable, state)
}

// LoadSyncState reads the state row of chainID.
func LoadSyncState(db meddler.DB, chainID uint64) (*SyncState, error) {
	var state SyncState
	err := meddler.QueryRow(db, &state, `SELECT * FROM sync_state WHERE chain_id = ?`, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state of chain %d: %w", chainID, err)
	}
	return &state, nil
}
