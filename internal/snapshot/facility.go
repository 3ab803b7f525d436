package snapshot

import (
	"context"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/entities"
	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

// FacilitySnapshot returns the snapshot of facility at the origin block,
// creating it when missing.
func (m *Manager) FacilitySnapshot(
	ctx context.Context, origin model.Origin, facility model.DepositFacility,
) (model.FacilitySnapshot, error) {
	chainID := origin.ChainID
	address := common.HexToAddress(facility.Address)
	id := ids.FacilitySnapshot(chainID, origin.Block, address)

	existing, ok, err := m.tables.FacilitySnapshots.Get(ctx, id)
	if err != nil || ok {
		return existing, err
	}

	snap := model.FacilitySnapshot{
		Key:              model.Key{ID: id, ChainID: chainID},
		Block:            origin.Block,
		Timestamp:        origin.Timestamp,
		FacilityID:       facility.ID,
		Enabled:          facility.Enabled,
		AssetSnapshotIDs: []string{},
	}
	if err := m.tables.FacilitySnapshots.Set(ctx, snap); err != nil {
		return model.FacilitySnapshot{}, err
	}
	if err := m.SetPointer(ctx, chainID, model.SnapshotFacility, FacilityKey(address), id); err != nil {
		return model.FacilitySnapshot{}, err
	}
	return snap, nil
}

// FacilityAssetSnapshot returns the (facility, asset) snapshot at the origin
// block. A new snapshot carries the running totals of the previous one
// forward and reads claimable yield live.
func (m *Manager) FacilityAssetSnapshot(
	ctx context.Context, origin model.Origin, facility, asset common.Address,
) (model.FacilityAssetSnapshot, error) {
	chainID := origin.ChainID
	id := ids.FacilityAssetSnapshot(chainID, origin.Block, facility, asset)

	existing, ok, err := m.tables.FacilityAssetSnapshots.Get(ctx, id)
	if err != nil || ok {
		return existing, err
	}

	f, err := m.resolver.GetOrCreateFacility(ctx, chainID, facility)
	if err != nil {
		return model.FacilityAssetSnapshot{}, err
	}
	parent, err := m.FacilitySnapshot(ctx, origin, f)
	if err != nil {
		return model.FacilityAssetSnapshot{}, err
	}
	facilityAsset, err := m.resolver.GetOrCreateFacilityAsset(ctx, chainID, facility, asset, origin.Block)
	if err != nil {
		return model.FacilityAssetSnapshot{}, err
	}
	decimals, err := m.resolver.DepositAssetDecimals(ctx, facilityAsset.DepositAssetID)
	if err != nil {
		return model.FacilityAssetSnapshot{}, err
	}

	key := FacilityAssetKey(facility, asset)
	deposited, pending, borrowed := new(big.Int), new(big.Int), new(big.Int)

	prevID, found, err := m.lookup(ctx, chainID, model.SnapshotFacilityAsset, key)
	if err != nil {
		return model.FacilityAssetSnapshot{}, err
	}
	if found {
		prev, ok, err := m.tables.FacilityAssetSnapshots.Get(ctx, prevID)
		if err != nil {
			return model.FacilityAssetSnapshot{}, err
		}
		if ok {
			deposited, pending, borrowed = prev.TotalDeposited.Raw, prev.PendingRedemption.Raw, prev.BorrowedAmount.Raw
		}
	}

	yield, err := m.fetcher.FacilityClaimableYield(ctx, chainID, facility, asset, origin.Block)
	if err != nil {
		return model.FacilityAssetSnapshot{}, err
	}

	snap := model.FacilityAssetSnapshot{
		Key:                model.Key{ID: id, ChainID: chainID},
		Block:              origin.Block,
		Timestamp:          origin.Timestamp,
		FacilitySnapshotID: parent.ID,
		FacilityID:         f.ID,
		FacilityAssetID:    facilityAsset.ID,
		DepositAssetID:     facilityAsset.DepositAssetID,
		TotalDeposited:     model.NewAmount(deposited, decimals),
		PendingRedemption:  model.NewAmount(pending, decimals),
		BorrowedAmount:     model.NewAmount(borrowed, decimals),
		ClaimableYield:     model.NewAmount(yield, decimals),
	}
	if err := m.tables.FacilityAssetSnapshots.Set(ctx, snap); err != nil {
		return model.FacilityAssetSnapshot{}, err
	}

	if !slices.Contains(parent.AssetSnapshotIDs, id) {
		_, err := entities.Update(ctx, m.tables.FacilitySnapshots, parent, func(next *model.FacilitySnapshot) {
			next.AssetSnapshotIDs = append(slices.Clone(parent.AssetSnapshotIDs), id)
		})
		if err != nil {
			return model.FacilityAssetSnapshot{}, err
		}
	}

	if err := m.SetPointer(ctx, chainID, model.SnapshotFacilityAsset, key, id); err != nil {
		return model.FacilityAssetSnapshot{}, err
	}
	return snap, nil
}

// FacilityFullSnapshot writes the facility snapshot and one asset snapshot
// for every asset the facility is known to hold.
func (m *Manager) FacilityFullSnapshot(
	ctx context.Context, origin model.Origin, facility model.DepositFacility,
) (model.FacilitySnapshot, error) {
	if _, err := m.FacilitySnapshot(ctx, origin, facility); err != nil {
		return model.FacilitySnapshot{}, err
	}

	assets, err := m.resolver.FacilityAssets(ctx, facility.ID)
	if err != nil {
		return model.FacilitySnapshot{}, err
	}

	address := common.HexToAddress(facility.Address)
	for _, fa := range assets {
		depositAsset, err := m.resolver.GetDepositAsset(ctx, fa.DepositAssetID)
		if err != nil {
			return model.FacilitySnapshot{}, err
		}
		if _, err := m.FacilityAssetSnapshot(ctx, origin, address, common.HexToAddress(depositAsset.Address)); err != nil {
			return model.FacilitySnapshot{}, err
		}
	}

	m.log.Debugw("facility snapshot written",
		"chain_id", origin.ChainID, "block", origin.Block, "facility", facility.Address, "assets", len(assets))

	// re-read so the returned value lists the asset snapshots
	return m.tables.FacilitySnapshots.MustGet(ctx, ids.FacilitySnapshot(origin.ChainID, origin.Block, address))
}

// ApplyDeposited adds delta to the total deposited of (facility, asset) at
// the origin block and re-reads the claimable yield.
func (m *Manager) ApplyDeposited(
	ctx context.Context, origin model.Origin, facility, asset common.Address, delta *big.Int,
) (model.FacilityAssetSnapshot, error) {
	yield, err := m.fetcher.FacilityClaimableYield(ctx, origin.ChainID, facility, asset, origin.Block)
	if err != nil {
		return model.FacilityAssetSnapshot{}, err
	}
	return m.apply(ctx, origin, facility, asset, func(next *model.FacilityAssetSnapshot, decimals uint8) {
		next.TotalDeposited = next.TotalDeposited.Add(delta, decimals)
		next.ClaimableYield = model.NewAmount(yield, decimals)
	})
}

// ApplyPendingRedemption adds delta to the pending redemption total.
func (m *Manager) ApplyPendingRedemption(
	ctx context.Context, origin model.Origin, facility, asset common.Address, delta *big.Int,
) (model.FacilityAssetSnapshot, error) {
	return m.apply(ctx, origin, facility, asset, func(next *model.FacilityAssetSnapshot, decimals uint8) {
		next.PendingRedemption = next.PendingRedemption.Add(delta, decimals)
	})
}

// ApplyBorrowed adds delta to the borrowed total.
func (m *Manager) ApplyBorrowed(
	ctx context.Context, origin model.Origin, facility, asset common.Address, delta *big.Int,
) (model.FacilityAssetSnapshot, error) {
	return m.apply(ctx, origin, facility, asset, func(next *model.FacilityAssetSnapshot, decimals uint8) {
		next.BorrowedAmount = next.BorrowedAmount.Add(delta, decimals)
	})
}

func (m *Manager) apply(
	ctx context.Context,
	origin model.Origin,
	facility, asset common.Address,
	fn func(next *model.FacilityAssetSnapshot, decimals uint8),
) (model.FacilityAssetSnapshot, error) {
	snap, err := m.FacilityAssetSnapshot(ctx, origin, facility, asset)
	if err != nil {
		return model.FacilityAssetSnapshot{}, err
	}
	decimals, err := m.resolver.DepositAssetDecimals(ctx, snap.DepositAssetID)
	if err != nil {
		return model.FacilityAssetSnapshot{}, err
	}
	return entities.Update(ctx, m.tables.FacilityAssetSnapshots, snap, func(next *model.FacilityAssetSnapshot) {
		fn(next, decimals)
	})
}
