package entities

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

// GetOrCreateAsset reads name and decimals from the token contract on first sight.
func (r *Resolver) GetOrCreateAsset(ctx context.Context, chainID uint64, address common.Address) (model.Asset, error) {
	id := ids.Address(chainID, address)
	return getOrCreate(ctx, r.tables.Assets, id, func() (model.Asset, error) {
		decimals, err := r.fetcher.AssetDecimals(ctx, chainID, address)
		if err != nil {
			return model.Asset{}, err
		}
		name, err := r.fetcher.AssetName(ctx, chainID, address)
		if err != nil {
			return model.Asset{}, err
		}
		symbol, err := r.fetcher.AssetSymbol(ctx, chainID, address)
		if err != nil {
			return model.Asset{}, err
		}

		return model.Asset{
			Key:      model.Key{ID: id, ChainID: chainID},
			Address:  ids.Addr(address),
			Decimals: decimals,
			Name:     name,
			Symbol:   symbol,
		}, nil
	})
}

// GetAsset returns the asset stored under id or a not-found error.
func (r *Resolver) GetAsset(ctx context.Context, id string) (model.Asset, error) {
	return r.tables.Assets.MustGet(ctx, id)
}

// GetOrCreateDepositAsset creates an enabled deposit asset over the token at address.
func (r *Resolver) GetOrCreateDepositAsset(
	ctx context.Context, chainID uint64, address common.Address,
) (model.DepositAsset, error) {
	id := ids.Address(chainID, address)
	return getOrCreate(ctx, r.tables.DepositAssets, id, func() (model.DepositAsset, error) {
		asset, err := r.GetOrCreateAsset(ctx, chainID, address)
		if err != nil {
			return model.DepositAsset{}, err
		}

		return model.DepositAsset{
			Key:     model.Key{ID: id, ChainID: chainID},
			AssetID: asset.ID,
			Address: asset.Address,
			Enabled: true,
		}, nil
	})
}

func (r *Resolver) GetDepositAsset(ctx context.Context, id string) (model.DepositAsset, error) {
	return r.tables.DepositAssets.MustGet(ctx, id)
}

// GetOrCreateDepositAssetPeriod creates the (asset, months) pair of a deposit asset.
func (r *Resolver) GetOrCreateDepositAssetPeriod(
	ctx context.Context, chainID uint64, address common.Address, months uint8,
) (model.DepositAssetPeriod, error) {
	id := ids.DepositAssetPeriod(chainID, address, months)
	return getOrCreate(ctx, r.tables.DepositAssetPeriods, id, func() (model.DepositAssetPeriod, error) {
		depositAsset, err := r.GetOrCreateDepositAsset(ctx, chainID, address)
		if err != nil {
			return model.DepositAssetPeriod{}, err
		}

		return model.DepositAssetPeriod{
			Key:            model.Key{ID: id, ChainID: chainID},
			DepositAssetID: depositAsset.ID,
			AssetID:        depositAsset.AssetID,
			PeriodMonths:   months,
			Enabled:        true,
		}, nil
	})
}

func (r *Resolver) GetDepositAssetPeriod(ctx context.Context, id string) (model.DepositAssetPeriod, error) {
	return r.tables.DepositAssetPeriods.MustGet(ctx, id)
}

func (r *Resolver) UpdateDepositAssetPeriod(
	ctx context.Context, old model.DepositAssetPeriod, fn func(*model.DepositAssetPeriod),
) (model.DepositAssetPeriod, error) {
	return Update(ctx, r.tables.DepositAssetPeriods, old, fn)
}

// DepositAssetDecimals returns the decimals of the asset behind a deposit asset id.
func (r *Resolver) DepositAssetDecimals(ctx context.Context, depositAssetID string) (uint8, error) {
	depositAsset, err := r.GetDepositAsset(ctx, depositAssetID)
	if err != nil {
		return 0, err
	}
	asset, err := r.GetAsset(ctx, depositAsset.AssetID)
	if err != nil {
		return 0, err
	}
	return asset.Decimals, nil
}

// AssetPeriodDecimals returns the decimals of the asset behind a deposit asset period id.
func (r *Resolver) AssetPeriodDecimals(ctx context.Context, periodID string) (uint8, error) {
	period, err := r.GetDepositAssetPeriod(ctx, periodID)
	if err != nil {
		return 0, err
	}
	return r.DepositAssetDecimals(ctx, period.DepositAssetID)
}

// GetOrCreateDepositor creates the depositor of address on chainID.
func (r *Resolver) GetOrCreateDepositor(
	ctx context.Context, chainID uint64, address common.Address,
) (model.Depositor, error) {
	id := ids.Address(chainID, address)
	return getOrCreate(ctx, r.tables.Depositors, id, func() (model.Depositor, error) {
		return model.Depositor{Key: model.Key{ID: id, ChainID: chainID}, Address: ids.Addr(address)}, nil
	})
}

func (r *Resolver) GetDepositor(ctx context.Context, id string) (model.Depositor, error) {
	return r.tables.Depositors.MustGet(ctx, id)
}
