package handlers

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

func (h *Handlers) AnnualInterestRateSet(ctx context.Context, ev Event[AnnualInterestRateSetParams]) error {
	meta, p := ev.Meta, ev.Params

	cfg, err := h.resolver.GetOrCreateVaultAssetConfiguration(ctx, meta.ChainID, meta.Address, p.Facility, p.Asset)
	if err != nil {
		return err
	}

	rate := model.BpsAmount(big.NewInt(int64(p.Rate)))
	err = h.record(ctx, model.KindAnnualInterestRateSet, model.VaultAssetRateEvent{
		EventMeta:       meta.EventMeta(),
		VaultID:         cfg.VaultID,
		ConfigurationID: cfg.ID,
		Rate:            rate,
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateVaultAssetConfiguration(ctx, cfg, func(next *model.RedemptionVaultAssetConfiguration) {
		next.AnnualInterestRate = rate
	})
	return err
}

func (h *Handlers) MaxBorrowPercentageSet(ctx context.Context, ev Event[MaxBorrowPercentageSetParams]) error {
	meta, p := ev.Meta, ev.Params

	cfg, err := h.resolver.GetOrCreateVaultAssetConfiguration(ctx, meta.ChainID, meta.Address, p.Facility, p.Asset)
	if err != nil {
		return err
	}

	percent := model.BpsAmount(big.NewInt(int64(p.Percent)))
	err = h.record(ctx, model.KindMaxBorrowPercentageSet, model.VaultAssetRateEvent{
		EventMeta:       meta.EventMeta(),
		VaultID:         cfg.VaultID,
		ConfigurationID: cfg.ID,
		Rate:            percent,
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateVaultAssetConfiguration(ctx, cfg, func(next *model.RedemptionVaultAssetConfiguration) {
		next.MaxBorrowPercentage = percent
	})
	return err
}

func (h *Handlers) ClaimDefaultRewardPercentageSet(
	ctx context.Context, ev Event[ClaimDefaultRewardPercentageSetParams],
) error {
	meta := ev.Meta

	vault, err := h.resolver.GetOrCreateVault(ctx, meta.ChainID, meta.Address)
	if err != nil {
		return err
	}

	percent := model.BpsAmount(big.NewInt(int64(ev.Params.Percent)))
	err = h.record(ctx, model.KindClaimDefaultRewardPercentageSet, model.ClaimDefaultRewardPercentageSetEvent{
		EventMeta: meta.EventMeta(),
		VaultID:   vault.ID,
		Percent:   percent,
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateVault(ctx, vault, func(next *model.RedemptionVault) {
		next.ClaimDefaultRewardPercentage = percent
	})
	return err
}

func (h *Handlers) VaultEnabled(ctx context.Context, ev Event[NoParams]) error {
	return h.toggleVault(ctx, model.KindVaultEnabled, ev.Meta, true)
}

func (h *Handlers) VaultDisabled(ctx context.Context, ev Event[NoParams]) error {
	return h.toggleVault(ctx, model.KindVaultDisabled, ev.Meta, false)
}

func (h *Handlers) toggleVault(ctx context.Context, kind string, meta model.Origin, enabled bool) error {
	vault, err := h.resolver.GetOrCreateVault(ctx, meta.ChainID, meta.Address)
	if err != nil {
		return err
	}
	if err := h.record(ctx, kind, model.ToggleEvent{EventMeta: meta.EventMeta(), ContractID: vault.ID}); err != nil {
		return err
	}

	_, err = h.resolver.UpdateVault(ctx, vault, func(next *model.RedemptionVault) {
		next.Enabled = enabled
	})
	return err
}

func (h *Handlers) FacilityAuthorized(ctx context.Context, ev Event[FacilityAuthorizationParams]) error {
	return h.facilityAuthorization(ctx, model.KindFacilityAuthorized, ev)
}

func (h *Handlers) FacilityDeauthorized(ctx context.Context, ev Event[FacilityAuthorizationParams]) error {
	return h.facilityAuthorization(ctx, model.KindFacilityDeauthorized, ev)
}

func (h *Handlers) facilityAuthorization(
	ctx context.Context, kind string, ev Event[FacilityAuthorizationParams],
) error {
	meta := ev.Meta

	vault, err := h.resolver.GetOrCreateVault(ctx, meta.ChainID, meta.Address)
	if err != nil {
		return err
	}
	facility, err := h.resolver.GetOrCreateFacility(ctx, meta.ChainID, ev.Params.Facility)
	if err != nil {
		return err
	}

	return h.record(ctx, kind, model.FacilityAuthorizationEvent{
		EventMeta:  meta.EventMeta(),
		VaultID:    vault.ID,
		FacilityID: facility.ID,
	})
}

// loanRedemption returns the loan and the redemption it was taken against.
func (h *Handlers) loanRedemption(
	ctx context.Context, meta model.Origin, user common.Address, redemptionID uint16,
) (model.RedemptionLoan, model.Redemption, error) {
	loan, err := h.resolver.GetLoan(ctx, ids.RedemptionLoan(meta.ChainID, meta.Address, user, uint64(redemptionID)))
	if err != nil {
		return model.RedemptionLoan{}, model.Redemption{}, err
	}
	redemption, err := h.resolver.GetRedemption(ctx, loan.RedemptionID)
	if err != nil {
		return model.RedemptionLoan{}, model.Redemption{}, err
	}
	return loan, redemption, nil
}

// LoanCreated opens a loan against an existing redemption. The borrowed
// amount leaves the event's facility deposits.
func (h *Handlers) LoanCreated(ctx context.Context, ev Event[LoanCreatedParams]) error {
	meta, p := ev.Meta, ev.Params

	loan, err := h.resolver.GetOrCreateLoan(ctx, meta, meta.Address, p.User, uint64(p.RedemptionId))
	if err != nil {
		return err
	}
	redemption, err := h.resolver.GetRedemption(ctx, loan.RedemptionID)
	if err != nil {
		return err
	}
	facility, err := h.resolver.GetOrCreateFacility(ctx, meta.ChainID, p.Facility)
	if err != nil {
		return err
	}
	decimals, err := h.resolver.AssetPeriodDecimals(ctx, redemption.AssetPeriodID)
	if err != nil {
		return err
	}

	err = h.record(ctx, model.KindLoanCreated, model.LoanCreatedEvent{
		EventMeta:    meta.EventMeta(),
		VaultID:      loan.VaultID,
		LoanID:       loan.ID,
		RedemptionID: redemption.ID,
		FacilityID:   facility.ID,
		Amount:       model.NewAmount(p.Amount, decimals),
	})
	if err != nil {
		return err
	}

	if err := h.refreshLinkedPosition(ctx, meta, redemption); err != nil {
		return err
	}

	_, asset, err := h.redemptionTarget(ctx, redemption)
	if err != nil {
		return err
	}
	if _, err := h.snapshots.ApplyBorrowed(ctx, meta, p.Facility, asset, p.Amount); err != nil {
		return err
	}
	_, err = h.snapshots.ApplyDeposited(ctx, meta, p.Facility, asset, neg(p.Amount))
	return err
}

func (h *Handlers) LoanDefaulted(ctx context.Context, ev Event[LoanDefaultedParams]) error {
	meta, p := ev.Meta, ev.Params

	loan, redemption, err := h.loanRedemption(ctx, meta, p.User, p.RedemptionId)
	if err != nil {
		return err
	}
	decimals, err := h.resolver.AssetPeriodDecimals(ctx, redemption.AssetPeriodID)
	if err != nil {
		return err
	}

	err = h.record(ctx, model.KindLoanDefaulted, model.LoanDefaultedEvent{
		EventMeta:           meta.EventMeta(),
		VaultID:             loan.VaultID,
		LoanID:              loan.ID,
		Principal:           model.NewAmount(p.Principal, decimals),
		Interest:            model.NewAmount(p.Interest, decimals),
		RemainingCollateral: model.NewAmount(p.RemainingCollateral, decimals),
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateLoan(ctx, loan, func(next *model.RedemptionLoan) {
		next.Status = model.LoanDefaulted
	})
	if err != nil {
		return err
	}
	if err := h.refreshLinkedPosition(ctx, meta, redemption); err != nil {
		return err
	}

	facility, asset, err := h.redemptionTarget(ctx, redemption)
	if err != nil {
		return err
	}
	_, err = h.snapshots.ApplyBorrowed(ctx, meta, facility, asset, neg(p.Principal))
	return err
}

func (h *Handlers) LoanExtended(ctx context.Context, ev Event[LoanExtendedParams]) error {
	meta, p := ev.Meta, ev.Params

	loan, redemption, err := h.loanRedemption(ctx, meta, p.User, p.RedemptionId)
	if err != nil {
		return err
	}

	dueDate := p.NewDueDate.Uint64()
	err = h.record(ctx, model.KindLoanExtended, model.LoanExtendedEvent{
		EventMeta:  meta.EventMeta(),
		VaultID:    loan.VaultID,
		LoanID:     loan.ID,
		NewDueDate: dueDate,
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateLoan(ctx, loan, func(next *model.RedemptionLoan) {
		next.DueDate = dueDate
	})
	if err != nil {
		return err
	}
	return h.refreshLinkedPosition(ctx, meta, redemption)
}

// LoanRepaid carries the loan's outstanding principal and interest after the
// repayment. The difference to the stored principal returns to the
// facility's deposits.
func (h *Handlers) LoanRepaid(ctx context.Context, ev Event[LoanRepaidParams]) error {
	meta, p := ev.Meta, ev.Params

	loan, redemption, err := h.loanRedemption(ctx, meta, p.User, p.RedemptionId)
	if err != nil {
		return err
	}
	decimals, err := h.resolver.AssetPeriodDecimals(ctx, redemption.AssetPeriodID)
	if err != nil {
		return err
	}

	err = h.record(ctx, model.KindLoanRepaid, model.LoanRepaidEvent{
		EventMeta: meta.EventMeta(),
		VaultID:   loan.VaultID,
		LoanID:    loan.ID,
		Principal: model.NewAmount(p.Principal, decimals),
		Interest:  model.NewAmount(p.Interest, decimals),
	})
	if err != nil {
		return err
	}

	repaid := new(big.Int)
	if loan.Principal.Raw != nil {
		repaid.Sub(loan.Principal.Raw, p.Principal)
	}

	_, err = h.resolver.UpdateLoan(ctx, loan, func(next *model.RedemptionLoan) {
		next.Principal = model.NewAmount(p.Principal, decimals)
		next.Interest = model.NewAmount(p.Interest, decimals)
		next.Status = model.LoanActive
		if p.Principal.Sign() == 0 {
			next.Status = model.LoanRepaid
		}
	})
	if err != nil {
		return err
	}
	if err := h.refreshLinkedPosition(ctx, meta, redemption); err != nil {
		return err
	}

	if repaid.Sign() <= 0 {
		return nil
	}
	facility, asset, err := h.redemptionTarget(ctx, redemption)
	if err != nil {
		return err
	}
	if _, err := h.snapshots.ApplyBorrowed(ctx, meta, facility, asset, neg(repaid)); err != nil {
		return err
	}
	_, err = h.snapshots.ApplyDeposited(ctx, meta, facility, asset, repaid)
	return err
}

// RedemptionCancelled stores the event amount on the redemption and drops the
// whole previously stored amount from the facility's pending total. A fully
// cancelled redemption changes status.
func (h *Handlers) RedemptionCancelled(ctx context.Context, ev Event[RedemptionCancelledParams]) error {
	meta, p := ev.Meta, ev.Params

	redemption, err := h.resolver.GetRedemption(ctx, ids.Redemption(meta.ChainID, p.User, uint64(p.RedemptionId)))
	if err != nil {
		return err
	}
	decimals, err := h.resolver.AssetPeriodDecimals(ctx, redemption.AssetPeriodID)
	if err != nil {
		return err
	}

	err = h.record(ctx, model.KindRedemptionCancelled, model.RedemptionCancelledEvent{
		EventMeta:       meta.EventMeta(),
		VaultID:         redemption.VaultID,
		RedemptionID:    redemption.ID,
		Amount:          model.NewAmount(p.Amount, decimals),
		RemainingAmount: model.NewAmount(p.RemainingAmount, decimals),
	})
	if err != nil {
		return err
	}

	previous := new(big.Int)
	if redemption.Amount.Raw != nil {
		previous.Set(redemption.Amount.Raw)
	}

	redemption, err = h.resolver.UpdateRedemption(ctx, redemption, func(next *model.Redemption) {
		next.Amount = model.NewAmount(p.Amount, decimals)
		if p.RemainingAmount.Sign() == 0 {
			next.Status = model.RedemptionCancelled
		}
	})
	if err != nil {
		return err
	}
	if err := h.refreshLinkedPosition(ctx, meta, redemption); err != nil {
		return err
	}

	facility, _, err := h.redemptionTarget(ctx, redemption)
	if err != nil {
		return err
	}
	_, err = h.snapshots.ApplyPendingRedemption(ctx, meta, facility, p.DepositToken, neg(previous))
	return err
}

// RedemptionFinished stores the redeemed amount and pays it out of the
// facility.
func (h *Handlers) RedemptionFinished(ctx context.Context, ev Event[RedemptionFinishedParams]) error {
	meta, p := ev.Meta, ev.Params

	redemption, err := h.resolver.GetRedemption(ctx, ids.Redemption(meta.ChainID, p.User, uint64(p.RedemptionId)))
	if err != nil {
		return err
	}
	decimals, err := h.resolver.AssetPeriodDecimals(ctx, redemption.AssetPeriodID)
	if err != nil {
		return err
	}

	err = h.record(ctx, model.KindRedemptionFinished, model.RedemptionFinishedEvent{
		EventMeta:    meta.EventMeta(),
		VaultID:      redemption.VaultID,
		RedemptionID: redemption.ID,
		Amount:       model.NewAmount(p.Amount, decimals),
	})
	if err != nil {
		return err
	}

	redemption, err = h.resolver.UpdateRedemption(ctx, redemption, func(next *model.Redemption) {
		next.Amount = model.NewAmount(p.Amount, decimals)
		next.Status = model.RedemptionFinished
	})
	if err != nil {
		return err
	}
	if err := h.refreshLinkedPosition(ctx, meta, redemption); err != nil {
		return err
	}

	facility, _, err := h.redemptionTarget(ctx, redemption)
	if err != nil {
		return err
	}
	if _, err := h.snapshots.ApplyPendingRedemption(ctx, meta, facility, p.DepositToken, neg(p.Amount)); err != nil {
		return err
	}
	_, err = h.snapshots.ApplyDeposited(ctx, meta, facility, p.DepositToken, neg(p.Amount))
	return err
}

// RedemptionStarted opens a redemption and adds it to the facility's
// pending total.
func (h *Handlers) RedemptionStarted(ctx context.Context, ev Event[RedemptionStartedParams]) error {
	meta, p := ev.Meta, ev.Params

	redemption, err := h.resolver.GetOrCreateRedemption(ctx, meta, meta.Address, p.User, uint64(p.RedemptionId))
	if err != nil {
		return err
	}
	decimals, err := h.resolver.AssetPeriodDecimals(ctx, redemption.AssetPeriodID)
	if err != nil {
		return err
	}

	amount := model.NewAmount(p.Amount, decimals)
	err = h.record(ctx, model.KindRedemptionStarted, model.RedemptionStartedEvent{
		EventMeta:     meta.EventMeta(),
		VaultID:       redemption.VaultID,
		RedemptionID:  redemption.ID,
		FacilityID:    redemption.FacilityID,
		DepositorID:   redemption.DepositorID,
		AssetPeriodID: redemption.AssetPeriodID,
		Amount:        amount,
	})
	if err != nil {
		return err
	}

	redemption, err = h.resolver.UpdateRedemption(ctx, redemption, func(next *model.Redemption) {
		next.Amount = amount
	})
	if err != nil {
		return err
	}
	if err := h.refreshLinkedPosition(ctx, meta, redemption); err != nil {
		return err
	}

	_, err = h.snapshots.ApplyPendingRedemption(ctx, meta, p.Facility, p.DepositToken, p.Amount)
	return err
}
