package entities

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/fixedpoint"
	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/internal/store"
)

// GetOrCreateVault creates a disabled redemption vault.
func (r *Resolver) GetOrCreateVault(
	ctx context.Context, chainID uint64, address common.Address,
) (model.RedemptionVault, error) {
	id := ids.Address(chainID, address)
	return getOrCreate(ctx, r.tables.Vaults, id, func() (model.RedemptionVault, error) {
		reward, err := r.fetcher.VaultClaimDefaultReward(ctx, chainID, address)
		if err != nil {
			return model.RedemptionVault{}, err
		}

		return model.RedemptionVault{
			Key:                          model.Key{ID: id, ChainID: chainID},
			Address:                      ids.Addr(address),
			Enabled:                      false,
			ClaimDefaultRewardPercentage: model.BpsAmount(reward),
		}, nil
	})
}

// GetVault returns the redemption vault stored under id or a not-found error.
func (r *Resolver) GetVault(ctx context.Context, id string) (model.RedemptionVault, error) {
	return r.tables.Vaults.MustGet(ctx, id)
}

func (r *Resolver) UpdateVault(
	ctx context.Context, old model.RedemptionVault, fn func(*model.RedemptionVault),
) (model.RedemptionVault, error) {
	return Update(ctx, r.tables.Vaults, old, fn)
}

// GetOrCreateVaultAssetConfiguration creates the per (facility, asset) settings of a vault.
func (r *Resolver) GetOrCreateVaultAssetConfiguration(
	ctx context.Context, chainID uint64, vault, facility, asset common.Address,
) (model.RedemptionVaultAssetConfiguration, error) {
	id := ids.VaultAssetConfiguration(chainID, vault, facility, asset)
	return getOrCreate(ctx, r.tables.VaultAssetConfigurations, id,
		func() (model.RedemptionVaultAssetConfiguration, error) {
			v, err := r.GetOrCreateVault(ctx, chainID, vault)
			if err != nil {
				return model.RedemptionVaultAssetConfiguration{}, err
			}
			f, err := r.GetOrCreateFacility(ctx, chainID, facility)
			if err != nil {
				return model.RedemptionVaultAssetConfiguration{}, err
			}
			depositAsset, err := r.GetOrCreateDepositAsset(ctx, chainID, asset)
			if err != nil {
				return model.RedemptionVaultAssetConfiguration{}, err
			}
			rate, err := r.fetcher.VaultInterestRate(ctx, chainID, vault, facility, asset)
			if err != nil {
				return model.RedemptionVaultAssetConfiguration{}, err
			}
			maxBorrow, err := r.fetcher.VaultMaxBorrowPercentage(ctx, chainID, vault, facility, asset)
			if err != nil {
				return model.RedemptionVaultAssetConfiguration{}, err
			}

			return model.RedemptionVaultAssetConfiguration{
				Key:                 model.Key{ID: id, ChainID: chainID},
				VaultID:             v.ID,
				FacilityID:          f.ID,
				DepositAssetID:      depositAsset.ID,
				AnnualInterestRate:  model.BpsAmount(rate),
				MaxBorrowPercentage: model.BpsAmount(maxBorrow),
			}, nil
		})
}

func (r *Resolver) GetVaultAssetConfiguration(
	ctx context.Context, id string,
) (model.RedemptionVaultAssetConfiguration, error) {
	return r.tables.VaultAssetConfigurations.MustGet(ctx, id)
}

func (r *Resolver) UpdateVaultAssetConfiguration(
	ctx context.Context,
	old model.RedemptionVaultAssetConfiguration,
	fn func(*model.RedemptionVaultAssetConfiguration),
) (model.RedemptionVaultAssetConfiguration, error) {
	return Update(ctx, r.tables.VaultAssetConfigurations, old, fn)
}

// GetOrCreateRedemption reads the redemption live at the origin block and
// resolves its vault, depositor, facility, asset period and receipt token.
// The position link is omitted when the vault reports the unset sentinel.
func (r *Resolver) GetOrCreateRedemption(
	ctx context.Context, origin model.Origin, vault, user common.Address, redemptionID uint64,
) (model.Redemption, error) {
	chainID := origin.ChainID
	id := ids.Redemption(chainID, user, redemptionID)

	return getOrCreate(ctx, r.tables.Redemptions, id, func() (model.Redemption, error) {
		red, err := r.fetcher.VaultRedemption(ctx, chainID, vault, user, redemptionID, origin.Block)
		if err != nil {
			return model.Redemption{}, err
		}

		depositor, err := r.GetOrCreateDepositor(ctx, chainID, user)
		if err != nil {
			return model.Redemption{}, err
		}
		receipt, err := r.GetOrCreateReceiptToken(ctx, chainID, red.Facility, red.DepositToken, red.DepositPeriod)
		if err != nil {
			return model.Redemption{}, err
		}
		v, err := r.GetOrCreateVault(ctx, chainID, vault)
		if err != nil {
			return model.Redemption{}, err
		}
		facility, err := r.GetOrCreateFacility(ctx, chainID, red.Facility)
		if err != nil {
			return model.Redemption{}, err
		}
		period, err := r.GetOrCreateDepositAssetPeriod(ctx, chainID, red.DepositToken, red.DepositPeriod)
		if err != nil {
			return model.Redemption{}, err
		}
		decimals, err := r.AssetPeriodDecimals(ctx, period.ID)
		if err != nil {
			return model.Redemption{}, err
		}

		var positionID string
		if linked := fixedpoint.OrNil(red.PositionID); linked != nil {
			positionID = ids.Position(chainID, linked)
		}

		return model.Redemption{
			Key:            model.Key{ID: id, ChainID: chainID},
			RedemptionID:   redemptionID,
			DepositorID:    depositor.ID,
			VaultID:        v.ID,
			FacilityID:     facility.ID,
			AssetPeriodID:  period.ID,
			ReceiptTokenID: receipt.ID,
			PositionID:     positionID,
			Amount:         model.NewAmount(red.Amount, decimals),
			RedeemableAt:   red.RedeemableAt,
			Status:         model.RedemptionStarted,
		}, nil
	})
}

// GetRedemption returns the redemption stored under id or a not-found error.
func (r *Resolver) GetRedemption(ctx context.Context, id string) (model.Redemption, error) {
	return r.tables.Redemptions.MustGet(ctx, id)
}

func (r *Resolver) UpdateRedemption(
	ctx context.Context, old model.Redemption, fn func(*model.Redemption),
) (model.Redemption, error) {
	return Update(ctx, r.tables.Redemptions, old, fn)
}

// RedemptionPosition returns the position a redemption is backed by, if any.
func (r *Resolver) RedemptionPosition(
	ctx context.Context, redemption model.Redemption,
) (model.Position, bool, error) {
	if redemption.PositionID == "" {
		return model.Position{}, false, nil
	}
	position, err := r.GetPosition(ctx, redemption.PositionID)
	if err != nil {
		return model.Position{}, false, err
	}
	return position, true, nil
}

// GetOrCreateLoan creates an active loan against an existing redemption.
// A missing redemption is a *store.NotFoundError.
func (r *Resolver) GetOrCreateLoan(
	ctx context.Context, origin model.Origin, vault, user common.Address, redemptionID uint64,
) (model.RedemptionLoan, error) {
	chainID := origin.ChainID
	id := ids.RedemptionLoan(chainID, vault, user, redemptionID)

	return getOrCreate(ctx, r.tables.Loans, id, func() (model.RedemptionLoan, error) {
		redemption, err := r.GetRedemption(ctx, ids.Redemption(chainID, user, redemptionID))
		if err != nil {
			return model.RedemptionLoan{}, err
		}
		v, err := r.GetOrCreateVault(ctx, chainID, vault)
		if err != nil {
			return model.RedemptionLoan{}, err
		}
		decimals, err := r.AssetPeriodDecimals(ctx, redemption.AssetPeriodID)
		if err != nil {
			return model.RedemptionLoan{}, err
		}
		loan, err := r.fetcher.VaultLoan(ctx, chainID, vault, user, redemptionID, origin.Block)
		if err != nil {
			return model.RedemptionLoan{}, err
		}

		return model.RedemptionLoan{
			Key:              model.Key{ID: id, ChainID: chainID},
			VaultID:          v.ID,
			RedemptionID:     redemption.ID,
			DepositorID:      redemption.DepositorID,
			InitialPrincipal: model.NewAmount(loan.InitialPrincipal, decimals),
			Principal:        model.NewAmount(loan.Principal, decimals),
			Interest:         model.NewAmount(loan.Interest, decimals),
			CreatedAt:        origin.Timestamp,
			DueDate:          loan.DueDate,
			Status:           model.LoanActive,
		}, nil
	})
}

// GetLoan looks a loan up by its vault-qualified id, see ids.RedemptionLoan.
func (r *Resolver) GetLoan(ctx context.Context, id string) (model.RedemptionLoan, error) {
	return r.tables.Loans.MustGet(ctx, id)
}

func (r *Resolver) UpdateLoan(
	ctx context.Context, old model.RedemptionLoan, fn func(*model.RedemptionLoan),
) (model.RedemptionLoan, error) {
	return Update(ctx, r.tables.Loans, old, fn)
}

// IsNotFound reports whether err is a missing-entity error.
func IsNotFound(err error) bool {
	return store.IsNotFound(err)
}
