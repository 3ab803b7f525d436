// Package snapshot writes immutable point-in-time snapshots and keeps the
// per-chain latest-snapshot pointer table current.
//
// Auctioneer snapshots are always full refreshes from the contract. Facility
// asset snapshots carry their running totals forward from the previous
// snapshot of the same (facility, asset) and are adjusted by deltas as events
// arrive. Claimable yield is never carried forward.
package snapshot

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/entities"
	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/internal/store"
)

// Manager writes snapshots through the resolver's tables.
type Manager struct {
	resolver *entities.Resolver
	tables   *store.Tables
	fetcher  *contracts.Fetcher
	log      *logger.Logger
}

func NewManager(resolver *entities.Resolver, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{
		resolver: resolver,
		tables:   resolver.Tables(),
		fetcher:  resolver.Fetcher(),
		log:      log,
	}
}

// Pointer keys. They are built from addresses only so lookups never need to
// parse a snapshot id.

func AuctioneerKey(auctioneer common.Address) string {
	return ids.Build(auctioneer)
}

func AuctioneerDepositPeriodKey(auctioneer, asset common.Address, months uint8) string {
	return ids.Build(auctioneer, asset, months)
}

func FacilityKey(facility common.Address) string {
	return ids.Build(facility)
}

func FacilityAssetKey(facility, asset common.Address) string {
	return ids.Build(facility, asset)
}

// Latest returns the pointer table of a chain. A chain without snapshots
// gets an empty table.
func (m *Manager) Latest(ctx context.Context, chainID uint64) (model.LatestSnapshot, error) {
	id := ids.LatestSnapshot(chainID)

	latest, ok, err := m.tables.LatestSnapshots.Get(ctx, id)
	if err != nil {
		return model.LatestSnapshot{}, err
	}
	if !ok {
		return model.LatestSnapshot{Key: model.Key{ID: id, ChainID: chainID}}, nil
	}
	return latest, nil
}

// SetPointer replaces the pointer for (kind, key) with snapshotID.
func (m *Manager) SetPointer(
	ctx context.Context, chainID uint64, kind model.SnapshotKind, key, snapshotID string,
) error {
	latest, err := m.Latest(ctx, chainID)
	if err != nil {
		return err
	}
	return m.tables.LatestSnapshots.Set(ctx, latest.WithPointer(kind, key, snapshotID))
}

// lookup returns the current snapshot id for (kind, key).
func (m *Manager) lookup(ctx context.Context, chainID uint64, kind model.SnapshotKind, key string) (string, bool, error) {
	latest, err := m.Latest(ctx, chainID)
	if err != nil {
		return "", false, err
	}
	id, ok := latest.Lookup(kind, key)
	return id, ok, nil
}
