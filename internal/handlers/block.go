package handlers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
)

// HandleBlock takes the periodic snapshots of every enabled auctioneer and
// facility, selected by contract name, when the snapshot interval of the
// chain is due at header. A contract that has not emitted an event yet has
// nothing to snapshot.
func (r *Router) HandleBlock(ctx context.Context, header *types.Header) error {
	block := header.Number.Uint64()
	if !r.chain.Snapshot.Due(block) {
		return nil
	}

	chainID := r.chain.ChainID
	timestamp := header.Time
	if timestamp == 0 {
		var err error
		if timestamp, err = r.h.fetcher.BlockTimestamp(ctx, chainID, block); err != nil {
			return err
		}
	}
	meta := model.Origin{ChainID: chainID, Block: block, Timestamp: timestamp}

	for _, addr := range r.chain.AuctioneerAddresses() {
		if err := r.snapshotAuctioneer(ctx, meta, addr); err != nil {
			return err
		}
	}
	for _, addr := range r.chain.FacilityAddresses() {
		if err := r.snapshotFacility(ctx, meta, addr); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) snapshotAuctioneer(ctx context.Context, meta model.Origin, addr common.Address) error {
	auctioneer, ok, err := r.h.tables.Auctioneers.Get(ctx, ids.Address(meta.ChainID, addr))
	if err != nil || !ok || !auctioneer.Enabled {
		return err
	}
	if _, err := r.h.snapshots.AuctioneerSnapshot(ctx, meta, auctioneer); err != nil {
		return err
	}
	blockCallbackInc(meta.ChainID, string(config.KindAuctioneer))
	return nil
}

func (r *Router) snapshotFacility(ctx context.Context, meta model.Origin, addr common.Address) error {
	facility, ok, err := r.h.tables.Facilities.Get(ctx, ids.Address(meta.ChainID, addr))
	if err != nil || !ok || !facility.Enabled {
		return err
	}
	if _, err := r.h.snapshots.FacilityFullSnapshot(ctx, meta, facility); err != nil {
		return err
	}
	blockCallbackInc(meta.ChainID, string(config.KindFacility))
	return nil
}
