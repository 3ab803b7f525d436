package handlers

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/fixedpoint"
	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

var ohmScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(fixedpoint.OhmDecimals)), nil)

func (h *Handlers) AssetCommitted(ctx context.Context, ev Event[AssetCommitParams]) error {
	return h.assetCommit(ctx, model.KindAssetCommitted, ev, ev.Params.Amount)
}

func (h *Handlers) AssetCommitCancelled(ctx context.Context, ev Event[AssetCommitParams]) error {
	return h.assetCommit(ctx, model.KindAssetCommitCancelled, ev, neg(ev.Params.Amount))
}

func (h *Handlers) AssetCommitWithdrawn(ctx context.Context, ev Event[AssetCommitParams]) error {
	return h.assetCommit(ctx, model.KindAssetCommitWithdrawn, ev, neg(ev.Params.Amount))
}

// assetCommit applies delta to the committed amount of the facility asset
// and records the event with the resulting total.
func (h *Handlers) assetCommit(ctx context.Context, kind string, ev Event[AssetCommitParams], delta *big.Int) error {
	meta, p := ev.Meta, ev.Params

	facilityAsset, err := h.resolver.GetOrCreateFacilityAsset(ctx, meta.ChainID, meta.Address, p.Asset, meta.Block)
	if err != nil {
		return err
	}
	decimals, err := h.resolver.DepositAssetDecimals(ctx, facilityAsset.DepositAssetID)
	if err != nil {
		return err
	}

	committed := facilityAsset.CommittedAmount.Add(delta, decimals)
	err = h.record(ctx, kind, model.AssetCommitEvent{
		EventMeta:       meta.EventMeta(),
		FacilityID:      facilityAsset.FacilityID,
		FacilityAssetID: facilityAsset.ID,
		Operator:        ids.Addr(p.Operator),
		Amount:          model.NewAmount(p.Amount, decimals),
		CommittedAmount: committed,
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateFacilityAsset(ctx, facilityAsset, func(next *model.DepositFacilityAsset) {
		next.CommittedAmount = committed
	})
	return err
}

func (h *Handlers) AssetPeriodReclaimRateSet(ctx context.Context, ev Event[AssetPeriodReclaimRateSetParams]) error {
	meta, p := ev.Meta, ev.Params

	period, err := h.resolver.GetOrCreateFacilityAssetPeriod(
		ctx, meta.ChainID, meta.Address, p.Asset, p.DepositPeriod, meta.Block)
	if err != nil {
		return err
	}

	rate := model.BpsAmount(big.NewInt(int64(p.ReclaimRate)))
	err = h.record(ctx, model.KindAssetPeriodReclaimRateSet, model.AssetPeriodReclaimRateSetEvent{
		EventMeta:             meta.EventMeta(),
		FacilityID:            period.FacilityID,
		FacilityAssetPeriodID: period.ID,
		ReclaimRate:           rate,
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateFacilityAssetPeriod(ctx, period, func(next *model.DepositFacilityAssetPeriod) {
		next.ReclaimRate = rate
	})
	return err
}

// ClaimedYield records the claim and makes sure a facility asset snapshot
// exists at the block, which re-reads the claimable yield.
func (h *Handlers) ClaimedYield(ctx context.Context, ev Event[ClaimedYieldParams]) error {
	meta, p := ev.Meta, ev.Params

	facilityAsset, err := h.resolver.GetOrCreateFacilityAsset(ctx, meta.ChainID, meta.Address, p.Asset, meta.Block)
	if err != nil {
		return err
	}
	decimals, err := h.resolver.DepositAssetDecimals(ctx, facilityAsset.DepositAssetID)
	if err != nil {
		return err
	}

	err = h.record(ctx, model.KindClaimedYield, model.ClaimedYieldEvent{
		EventMeta:       meta.EventMeta(),
		FacilityID:      facilityAsset.FacilityID,
		FacilityAssetID: facilityAsset.ID,
		Amount:          model.NewAmount(p.Amount, decimals),
	})
	if err != nil {
		return err
	}

	_, err = h.snapshots.FacilityAssetSnapshot(ctx, meta, meta.Address, p.Asset)
	return err
}

// positionChange is a stored position whose remaining amount differs from
// the contract.
type positionChange struct {
	stored   model.Position
	contract contracts.Position
	delta    *big.Int
}

// syncDepositorPositions re-reads every position of user and overwrites the
// stored ones that belong to assetPeriodID. Only positions whose remaining
// amount changed are returned.
func (h *Handlers) syncDepositorPositions(
	ctx context.Context, meta model.Origin, user common.Address, assetPeriodID string,
) ([]positionChange, error) {
	positionIDs, err := h.fetcher.UserPositionIDs(ctx, meta.ChainID, user, meta.Block)
	if err != nil {
		return nil, err
	}
	if len(positionIDs) == 0 {
		return nil, nil
	}
	onChain, err := h.fetcher.Positions(ctx, meta.ChainID, positionIDs, meta.Block)
	if err != nil {
		return nil, err
	}
	decimals, err := h.resolver.AssetPeriodDecimals(ctx, assetPeriodID)
	if err != nil {
		return nil, err
	}

	var changes []positionChange
	for i, positionID := range positionIDs {
		stored, ok, err := h.tables.Positions.Get(ctx, ids.Position(meta.ChainID, positionID))
		if err != nil {
			return nil, err
		}
		if !ok || stored.AssetPeriodID != assetPeriodID {
			continue
		}

		contract := onChain[i]
		delta := sub(stored.RemainingAmount.Raw, contract.RemainingDeposit)
		if delta.Sign() == 0 {
			continue
		}

		updated, err := h.resolver.UpdatePosition(ctx, stored, func(next *model.Position) {
			next.RemainingAmount = model.NewAmount(contract.RemainingDeposit, decimals)
			next.ConversionPrice = model.OptionalAmount(contract.ConversionPrice, decimals)
			next.Wrapped = contract.Wrapped
		})
		if err != nil {
			return nil, err
		}
		changes = append(changes, positionChange{stored: updated, contract: contract, delta: delta})
	}
	return changes, nil
}

// convertedOhm is the OHM received for delta deposit at the position's
// conversion price. A position without a price converts to nothing.
func convertedOhm(delta, conversionPrice *big.Int) *big.Int {
	price := fixedpoint.OrNil(conversionPrice)
	if price == nil || price.Sign() == 0 {
		return new(big.Int)
	}
	out := new(big.Int).Mul(delta, ohmScale)
	return out.Quo(out, price)
}

// ConvertedDeposit records the conversion and one child record for each
// position of the depositor it drew from.
func (h *Handlers) ConvertedDeposit(ctx context.Context, ev Event[ConvertedDepositParams]) error {
	meta, p := ev.Meta, ev.Params

	depositor, err := h.resolver.GetOrCreateDepositor(ctx, meta.ChainID, p.Depositor)
	if err != nil {
		return err
	}
	period, err := h.resolver.GetOrCreateFacilityAssetPeriod(
		ctx, meta.ChainID, meta.Address, p.Asset, p.PeriodMonths, meta.Block)
	if err != nil {
		return err
	}
	decimals, err := h.resolver.AssetPeriodDecimals(ctx, period.DepositAssetPeriodID)
	if err != nil {
		return err
	}

	parent := meta.EventMeta()
	err = h.record(ctx, model.KindConvertedDeposit, model.ConvertedDepositEvent{
		EventMeta:       parent,
		FacilityID:      period.FacilityID,
		DepositorID:     depositor.ID,
		AssetPeriodID:   period.DepositAssetPeriodID,
		DepositAmount:   model.NewAmount(p.DepositAmount, decimals),
		ConvertedAmount: model.OhmAmount(p.ConvertedAmount),
	})
	if err != nil {
		return err
	}

	changes, err := h.syncDepositorPositions(ctx, meta, p.Depositor, period.DepositAssetPeriodID)
	if err != nil {
		return err
	}
	for _, c := range changes {
		err := h.record(ctx, model.KindConvertedDepositPosition, model.ConvertedDepositPositionEvent{
			EventMeta:          meta.ChildMeta(c.stored.PositionID),
			ConvertedDepositID: parent.ID,
			PositionID:         c.stored.ID,
			DepositAmount:      model.NewAmount(c.delta, decimals),
			ConvertedAmount:    model.OhmAmount(convertedOhm(c.delta, c.contract.ConversionPrice)),
			RemainingAmount:    c.stored.RemainingAmount,
		})
		if err != nil {
			return err
		}
	}

	h.log.Debugw("converted deposit",
		"chain_id", meta.ChainID, "block", meta.Block, "depositor", depositor.Address, "positions", len(changes))

	_, err = h.snapshots.ApplyDeposited(ctx, meta, meta.Address, p.Asset, neg(p.DepositAmount))
	return err
}

// CreatedDeposit records a new position. The initial amount is the amount
// deposited; the remaining amount is whatever the contract reports.
func (h *Handlers) CreatedDeposit(ctx context.Context, ev Event[CreatedDepositParams]) error {
	meta, p := ev.Meta, ev.Params

	period, err := h.resolver.GetOrCreateFacilityAssetPeriod(
		ctx, meta.ChainID, meta.Address, p.Asset, p.PeriodMonths, meta.Block)
	if err != nil {
		return err
	}
	depositor, err := h.resolver.GetOrCreateDepositor(ctx, meta.ChainID, p.Depositor)
	if err != nil {
		return err
	}
	position, err := h.resolver.GetOrCreatePosition(ctx, meta, p.PositionId)
	if err != nil {
		return err
	}
	decimals, err := h.resolver.AssetPeriodDecimals(ctx, period.DepositAssetPeriodID)
	if err != nil {
		return err
	}

	err = h.record(ctx, model.KindCreatedDeposit, model.CreatedDepositEvent{
		EventMeta:     meta.EventMeta(),
		FacilityID:    period.FacilityID,
		DepositorID:   depositor.ID,
		AssetPeriodID: period.DepositAssetPeriodID,
		PositionID:    position.ID,
		DepositAmount: model.NewAmount(p.DepositAmount, decimals),
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdatePosition(ctx, position, func(next *model.Position) {
		next.InitialAmount = model.NewAmount(p.DepositAmount, decimals)
		next.RemainingAmount = model.NewAmount(p.DepositAmount, decimals)
	})
	if err != nil {
		return err
	}

	_, err = h.snapshots.ApplyDeposited(ctx, meta, meta.Address, p.Asset, p.DepositAmount)
	return err
}

func (h *Handlers) FacilityEnabled(ctx context.Context, ev Event[NoParams]) error {
	return h.toggleFacility(ctx, model.KindFacilityEnabled, ev.Meta, true)
}

func (h *Handlers) FacilityDisabled(ctx context.Context, ev Event[NoParams]) error {
	return h.toggleFacility(ctx, model.KindFacilityDisabled, ev.Meta, false)
}

func (h *Handlers) toggleFacility(ctx context.Context, kind string, meta model.Origin, enabled bool) error {
	facility, err := h.resolver.GetOrCreateFacility(ctx, meta.ChainID, meta.Address)
	if err != nil {
		return err
	}
	if err := h.record(ctx, kind, model.ToggleEvent{EventMeta: meta.EventMeta(), ContractID: facility.ID}); err != nil {
		return err
	}

	_, err = h.resolver.UpdateFacility(ctx, facility, func(next *model.DepositFacility) {
		next.Enabled = enabled
	})
	return err
}

func (h *Handlers) OperatorAuthorized(ctx context.Context, ev Event[OperatorParams]) error {
	return h.operator(ctx, model.KindOperatorAuthorized, ev)
}

func (h *Handlers) OperatorDeauthorized(ctx context.Context, ev Event[OperatorParams]) error {
	return h.operator(ctx, model.KindOperatorDeauthorized, ev)
}

func (h *Handlers) operator(ctx context.Context, kind string, ev Event[OperatorParams]) error {
	facility, err := h.resolver.GetOrCreateFacility(ctx, ev.Meta.ChainID, ev.Meta.Address)
	if err != nil {
		return err
	}
	return h.record(ctx, kind, model.OperatorEvent{
		EventMeta:  ev.Meta.EventMeta(),
		FacilityID: facility.ID,
		Operator:   ids.Addr(ev.Params.Operator),
	})
}

// Reclaimed records the reclaim and deducts the reclaimed amount from the
// facility's deposits. The forfeited part never left the facility.
func (h *Handlers) Reclaimed(ctx context.Context, ev Event[ReclaimedParams]) error {
	meta, p := ev.Meta, ev.Params

	period, err := h.resolver.GetOrCreateFacilityAssetPeriod(
		ctx, meta.ChainID, meta.Address, p.DepositToken, p.DepositPeriod, meta.Block)
	if err != nil {
		return err
	}
	depositor, err := h.resolver.GetOrCreateDepositor(ctx, meta.ChainID, p.User)
	if err != nil {
		return err
	}
	decimals, err := h.resolver.AssetPeriodDecimals(ctx, period.DepositAssetPeriodID)
	if err != nil {
		return err
	}

	err = h.record(ctx, model.KindReclaimed, model.ReclaimedEvent{
		EventMeta:       meta.EventMeta(),
		FacilityID:      period.FacilityID,
		DepositorID:     depositor.ID,
		AssetPeriodID:   period.DepositAssetPeriodID,
		ReclaimedAmount: model.NewAmount(p.ReclaimedAmount, decimals),
		ForfeitedAmount: model.NewAmount(p.ForfeitedAmount, decimals),
	})
	if err != nil {
		return err
	}

	if _, err := h.syncDepositorPositions(ctx, meta, p.User, period.DepositAssetPeriodID); err != nil {
		return err
	}

	_, err = h.snapshots.ApplyDeposited(ctx, meta, meta.Address, p.DepositToken, neg(p.ReclaimedAmount))
	return err
}
