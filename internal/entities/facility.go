package entities

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

// GetOrCreateFacility creates a disabled facility.
func (r *Resolver) GetOrCreateFacility(
	ctx context.Context, chainID uint64, address common.Address,
) (model.DepositFacility, error) {
	id := ids.Address(chainID, address)
	return getOrCreate(ctx, r.tables.Facilities, id, func() (model.DepositFacility, error) {
		return model.DepositFacility{
			Key:     model.Key{ID: id, ChainID: chainID},
			Address: ids.Addr(address),
			Enabled: false,
		}, nil
	})
}

// GetFacility returns the facility stored under id or a not-found error.
func (r *Resolver) GetFacility(ctx context.Context, id string) (model.DepositFacility, error) {
	return r.tables.Facilities.MustGet(ctx, id)
}

func (r *Resolver) UpdateFacility(
	ctx context.Context, old model.DepositFacility, fn func(*model.DepositFacility),
) (model.DepositFacility, error) {
	return Update(ctx, r.tables.Facilities, old, fn)
}

// GetOrCreateFacilityAsset reads the committed amount live at block.
func (r *Resolver) GetOrCreateFacilityAsset(
	ctx context.Context, chainID uint64, facility, asset common.Address, block uint64,
) (model.DepositFacilityAsset, error) {
	id := ids.FacilityAsset(chainID, facility, asset)
	return getOrCreate(ctx, r.tables.FacilityAssets, id, func() (model.DepositFacilityAsset, error) {
		f, err := r.GetOrCreateFacility(ctx, chainID, facility)
		if err != nil {
			return model.DepositFacilityAsset{}, err
		}
		depositAsset, err := r.GetOrCreateDepositAsset(ctx, chainID, asset)
		if err != nil {
			return model.DepositFacilityAsset{}, err
		}
		decimals, err := r.DepositAssetDecimals(ctx, depositAsset.ID)
		if err != nil {
			return model.DepositFacilityAsset{}, err
		}
		committed, err := r.fetcher.FacilityCommittedAmount(ctx, chainID, facility, asset, block)
		if err != nil {
			return model.DepositFacilityAsset{}, err
		}

		return model.DepositFacilityAsset{
			Key:             model.Key{ID: id, ChainID: chainID},
			FacilityID:      f.ID,
			DepositAssetID:  depositAsset.ID,
			CommittedAmount: model.NewAmount(committed, decimals),
		}, nil
	})
}

// GetFacilityAsset returns the (facility, asset) pair stored under id.
func (r *Resolver) GetFacilityAsset(ctx context.Context, id string) (model.DepositFacilityAsset, error) {
	return r.tables.FacilityAssets.MustGet(ctx, id)
}

func (r *Resolver) UpdateFacilityAsset(
	ctx context.Context, old model.DepositFacilityAsset, fn func(*model.DepositFacilityAsset),
) (model.DepositFacilityAsset, error) {
	return Update(ctx, r.tables.FacilityAssets, old, fn)
}

// FacilityAssets returns every known asset of a facility, ordered by id.
func (r *Resolver) FacilityAssets(ctx context.Context, facilityID string) ([]model.DepositFacilityAsset, error) {
	return r.tables.FacilityAssets.GetWhere(ctx, "facilityId", facilityID)
}

// GetOrCreateFacilityAssetPeriod links a facility to a deposit asset period,
// creating both sides on the way. The reclaim rate is read from the facility.
func (r *Resolver) GetOrCreateFacilityAssetPeriod(
	ctx context.Context, chainID uint64, facility, asset common.Address, months uint8, block uint64,
) (model.DepositFacilityAssetPeriod, error) {
	id := ids.FacilityAssetPeriod(chainID, facility, asset, months)
	return getOrCreate(ctx, r.tables.FacilityAssetPeriods, id, func() (model.DepositFacilityAssetPeriod, error) {
		facilityAsset, err := r.GetOrCreateFacilityAsset(ctx, chainID, facility, asset, block)
		if err != nil {
			return model.DepositFacilityAssetPeriod{}, err
		}
		period, err := r.GetOrCreateDepositAssetPeriod(ctx, chainID, asset, months)
		if err != nil {
			return model.DepositFacilityAssetPeriod{}, err
		}
		rate, err := r.fetcher.FacilityReclaimRate(ctx, chainID, facility, asset, months)
		if err != nil {
			return model.DepositFacilityAssetPeriod{}, err
		}

		return model.DepositFacilityAssetPeriod{
			Key:                  model.Key{ID: id, ChainID: chainID},
			FacilityID:           facilityAsset.FacilityID,
			FacilityAssetID:      facilityAsset.ID,
			DepositAssetPeriodID: period.ID,
			ReclaimRate:          model.BpsAmount(rate),
		}, nil
	})
}

func (r *Resolver) GetFacilityAssetPeriod(ctx context.Context, id string) (model.DepositFacilityAssetPeriod, error) {
	return r.tables.FacilityAssetPeriods.MustGet(ctx, id)
}

func (r *Resolver) UpdateFacilityAssetPeriod(
	ctx context.Context, old model.DepositFacilityAssetPeriod, fn func(*model.DepositFacilityAssetPeriod),
) (model.DepositFacilityAssetPeriod, error) {
	return Update(ctx, r.tables.FacilityAssetPeriods, old, fn)
}

// GetOrCreateReceiptToken resolves the token id through the facility's
// deposit manager before the id is known, so the staged reads always run.
// Both stages are cached.
func (r *Resolver) GetOrCreateReceiptToken(
	ctx context.Context, chainID uint64, facility, asset common.Address, months uint8,
) (model.ReceiptToken, error) {
	manager, tokenID, err := r.fetcher.ReceiptToken(ctx, chainID, facility, asset, months)
	if err != nil {
		return model.ReceiptToken{}, err
	}

	id := ids.ReceiptToken(chainID, manager, tokenID)
	return getOrCreate(ctx, r.tables.ReceiptTokens, id, func() (model.ReceiptToken, error) {
		f, err := r.GetOrCreateFacility(ctx, chainID, facility)
		if err != nil {
			return model.ReceiptToken{}, err
		}
		period, err := r.GetOrCreateDepositAssetPeriod(ctx, chainID, asset, months)
		if err != nil {
			return model.ReceiptToken{}, err
		}

		return model.ReceiptToken{
			Key:                  model.Key{ID: id, ChainID: chainID},
			Manager:              ids.Addr(manager),
			TokenID:              tokenID,
			FacilityID:           f.ID,
			DepositAssetPeriodID: period.ID,
		}, nil
	})
}

func (r *Resolver) GetReceiptToken(ctx context.Context, id string) (model.ReceiptToken, error) {
	return r.tables.ReceiptTokens.MustGet(ctx, id)
}
