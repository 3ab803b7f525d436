package entities

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

// GetOrCreateAuctioneer creates a disabled auctioneer. Auction parameters are
// read live at block.
func (r *Resolver) GetOrCreateAuctioneer(
	ctx context.Context, chainID uint64, address common.Address, block uint64,
) (model.Auctioneer, error) {
	id := ids.Address(chainID, address)
	return getOrCreate(ctx, r.tables.Auctioneers, id, func() (model.Auctioneer, error) {
		version, err := r.fetcher.AuctioneerVersion(ctx, chainID, address)
		if err != nil {
			return model.Auctioneer{}, err
		}
		trackingPeriod, err := r.fetcher.AuctioneerTrackingPeriod(ctx, chainID, address)
		if err != nil {
			return model.Auctioneer{}, err
		}
		assetAddress, err := r.fetcher.AuctioneerDepositAsset(ctx, chainID, address)
		if err != nil {
			return model.Auctioneer{}, err
		}
		depositAsset, err := r.GetOrCreateDepositAsset(ctx, chainID, assetAddress)
		if err != nil {
			return model.Auctioneer{}, err
		}
		decimals, err := r.DepositAssetDecimals(ctx, depositAsset.ID)
		if err != nil {
			return model.Auctioneer{}, err
		}
		tickStep, err := r.fetcher.AuctioneerTickStep(ctx, chainID, address)
		if err != nil {
			return model.Auctioneer{}, err
		}
		params, err := r.fetcher.AuctioneerParameters(ctx, chainID, address, block)
		if err != nil {
			return model.Auctioneer{}, err
		}

		return model.Auctioneer{
			Key:                   model.Key{ID: id, ChainID: chainID},
			Address:               ids.Addr(address),
			MajorVersion:          version.Major,
			MinorVersion:          version.Minor,
			Enabled:               false,
			DepositAssetID:        depositAsset.ID,
			AuctionTrackingPeriod: trackingPeriod,
			Target:                model.OhmAmount(params.Target),
			TickSize:              model.OhmAmount(params.TickSize),
			MinPrice:              model.NewAmount(params.MinPrice, decimals),
			TickStep:              model.BpsAmount(tickStep),
		}, nil
	})
}

// GetAuctioneer returns the auctioneer stored under id or a not-found error.
func (r *Resolver) GetAuctioneer(ctx context.Context, id string) (model.Auctioneer, error) {
	return r.tables.Auctioneers.MustGet(ctx, id)
}

func (r *Resolver) UpdateAuctioneer(
	ctx context.Context, old model.Auctioneer, fn func(*model.Auctioneer),
) (model.Auctioneer, error) {
	return Update(ctx, r.tables.Auctioneers, old, fn)
}

// GetOrCreateAuctioneerDepositPeriod creates a disabled deposit period with
// the tick read live at block.
func (r *Resolver) GetOrCreateAuctioneerDepositPeriod(
	ctx context.Context, auctioneer model.Auctioneer, asset common.Address, months uint8, block uint64,
) (model.AuctioneerDepositPeriod, error) {
	chainID := auctioneer.ChainID
	address := common.HexToAddress(auctioneer.Address)

	id := ids.AuctioneerDepositPeriod(chainID, address, asset, months)
	return getOrCreate(ctx, r.tables.AuctioneerDepositPeriods, id, func() (model.AuctioneerDepositPeriod, error) {
		period, err := r.GetOrCreateDepositAssetPeriod(ctx, chainID, asset, months)
		if err != nil {
			return model.AuctioneerDepositPeriod{}, err
		}
		decimals, err := r.AssetPeriodDecimals(ctx, period.ID)
		if err != nil {
			return model.AuctioneerDepositPeriod{}, err
		}
		tick, err := r.fetcher.AuctioneerCurrentTick(ctx, chainID, address, months, block)
		if err != nil {
			return model.AuctioneerDepositPeriod{}, err
		}

		return model.AuctioneerDepositPeriod{
			Key:                  model.Key{ID: id, ChainID: chainID},
			AuctioneerID:         auctioneer.ID,
			DepositAssetPeriodID: period.ID,
			PeriodMonths:         months,
			TickPrice:            model.NewAmount(tick.Price, decimals),
			TickCapacity:         model.OhmAmount(tick.Capacity),
			TickLastUpdate:       tick.LastUpdate,
		}, nil
	})
}

func (r *Resolver) GetAuctioneerDepositPeriod(ctx context.Context, id string) (model.AuctioneerDepositPeriod, error) {
	return r.tables.AuctioneerDepositPeriods.MustGet(ctx, id)
}

func (r *Resolver) UpdateAuctioneerDepositPeriod(
	ctx context.Context, old model.AuctioneerDepositPeriod, fn func(*model.AuctioneerDepositPeriod),
) (model.AuctioneerDepositPeriod, error) {
	return Update(ctx, r.tables.AuctioneerDepositPeriods, old, fn)
}

// AuctioneerDepositPeriods returns every deposit period of an auctioneer,
// ordered by id.
func (r *Resolver) AuctioneerDepositPeriods(
	ctx context.Context, auctioneerID string,
) ([]model.AuctioneerDepositPeriod, error) {
	return r.tables.AuctioneerDepositPeriods.GetWhere(ctx, "auctioneerId", auctioneerID)
}
