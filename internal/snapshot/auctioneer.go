package snapshot

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

// maxTickReads bounds the concurrent tick reads of one auctioneer refresh.
const maxTickReads = 4

// AuctioneerSnapshot writes a full-refresh snapshot of auctioneer at the
// origin block together with one snapshot per known deposit period. An
// existing snapshot for the block is returned unchanged.
func (m *Manager) AuctioneerSnapshot(
	ctx context.Context, origin model.Origin, auctioneer model.Auctioneer,
) (model.AuctioneerSnapshot, error) {
	chainID := origin.ChainID
	address := common.HexToAddress(auctioneer.Address)
	id := ids.AuctioneerSnapshot(chainID, origin.Block, address)

	existing, ok, err := m.tables.AuctioneerSnapshots.Get(ctx, id)
	if err != nil || ok {
		return existing, err
	}

	var (
		dayState contracts.DayState
		params   contracts.AuctionParameters
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dayState, err = m.fetcher.AuctioneerDayState(gctx, chainID, address, origin.Block)
		return err
	})
	g.Go(func() error {
		var err error
		params, err = m.fetcher.AuctioneerParameters(gctx, chainID, address, origin.Block)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.AuctioneerSnapshot{}, err
	}

	decimals, err := m.resolver.DepositAssetDecimals(ctx, auctioneer.DepositAssetID)
	if err != nil {
		return model.AuctioneerSnapshot{}, err
	}

	snap := model.AuctioneerSnapshot{
		Key:              model.Key{ID: id, ChainID: chainID},
		Block:            origin.Block,
		Timestamp:        origin.Timestamp,
		AuctioneerID:     auctioneer.ID,
		DayInitTimestamp: dayState.InitTimestamp,
		OhmSold:          model.OhmAmount(dayState.Convertible),
		IsAuctionActive:  auctioneer.Enabled,
		Target:           model.OhmAmount(params.Target),
		TickSize:         model.OhmAmount(params.TickSize),
		MinPrice:         model.NewAmount(params.MinPrice, decimals),
	}
	if err := m.tables.AuctioneerSnapshots.Set(ctx, snap); err != nil {
		return model.AuctioneerSnapshot{}, err
	}

	periods, err := m.resolver.AuctioneerDepositPeriods(ctx, auctioneer.ID)
	if err != nil {
		return model.AuctioneerSnapshot{}, err
	}
	if err := m.depositPeriodSnapshots(ctx, origin, address, snap, periods); err != nil {
		return model.AuctioneerSnapshot{}, err
	}

	if err := m.SetPointer(ctx, chainID, model.SnapshotAuctioneer, AuctioneerKey(address), id); err != nil {
		return model.AuctioneerSnapshot{}, err
	}

	m.log.Debugw("auctioneer snapshot written",
		"chain_id", chainID, "block", origin.Block, "auctioneer", auctioneer.Address, "periods", len(periods))
	return snap, nil
}

type periodTick struct {
	period model.AuctioneerDepositPeriod
	asset  model.Asset
	tick   contracts.Tick
}

// depositPeriodSnapshots reads every period's tick concurrently and then
// writes the snapshots in period order.
func (m *Manager) depositPeriodSnapshots(
	ctx context.Context,
	origin model.Origin,
	auctioneer common.Address,
	parent model.AuctioneerSnapshot,
	periods []model.AuctioneerDepositPeriod,
) error {
	chainID := origin.ChainID
	ticks := make([]periodTick, len(periods))

	for i, period := range periods {
		assetPeriod, err := m.resolver.GetDepositAssetPeriod(ctx, period.DepositAssetPeriodID)
		if err != nil {
			return err
		}
		asset, err := m.resolver.GetAsset(ctx, assetPeriod.AssetID)
		if err != nil {
			return err
		}
		ticks[i] = periodTick{period: period, asset: asset}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxTickReads)
	for i := range ticks {
		g.Go(func() error {
			tick, err := m.fetcher.AuctioneerCurrentTick(gctx, chainID, auctioneer, ticks[i].period.PeriodMonths, origin.Block)
			if err != nil {
				return err
			}
			ticks[i].tick = tick
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, pt := range ticks {
		asset := common.HexToAddress(pt.asset.Address)
		months := pt.period.PeriodMonths
		id := ids.AuctioneerDepositPeriodSnapshot(chainID, origin.Block, auctioneer, asset, months)

		snap := model.AuctioneerDepositPeriodSnapshot{
			Key:                       model.Key{ID: id, ChainID: chainID},
			Block:                     origin.Block,
			Timestamp:                 origin.Timestamp,
			AuctioneerSnapshotID:      parent.ID,
			AuctioneerDepositPeriodID: pt.period.ID,
			Enabled:                   pt.period.Enabled,
			TickPrice:                 model.NewAmount(pt.tick.Price, pt.asset.Decimals),
			TickCapacity:              model.OhmAmount(pt.tick.Capacity),
			TickLastUpdate:            pt.tick.LastUpdate,
		}
		if err := m.tables.AuctioneerDepositPeriodSnapshots.Set(ctx, snap); err != nil {
			return fmt.Errorf("failed to write deposit period snapshot %s: %w", id, err)
		}

		key := AuctioneerDepositPeriodKey(auctioneer, asset, months)
		if err := m.SetPointer(ctx, chainID, model.SnapshotAuctioneerDepositPeriod, key, id); err != nil {
			return err
		}
	}
	return nil
}
