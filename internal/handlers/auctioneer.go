package handlers

import (
	"context"

	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

func (h *Handlers) auctioneer(ctx context.Context, meta model.Origin) (model.Auctioneer, error) {
	return h.resolver.GetOrCreateAuctioneer(ctx, meta.ChainID, meta.Address, meta.Block)
}

func (h *Handlers) AuctionParametersUpdated(ctx context.Context, ev Event[AuctionParametersUpdatedParams]) error {
	auctioneer, err := h.auctioneer(ctx, ev.Meta)
	if err != nil {
		return err
	}
	decimals, err := h.resolver.DepositAssetDecimals(ctx, auctioneer.DepositAssetID)
	if err != nil {
		return err
	}

	p := ev.Params
	err = h.record(ctx, model.KindAuctionParametersUpdated, model.AuctionParametersUpdatedEvent{
		EventMeta:      ev.Meta.EventMeta(),
		AuctioneerID:   auctioneer.ID,
		DepositAssetID: auctioneer.DepositAssetID,
		NewTarget:      model.OhmAmount(p.NewTarget),
		NewTickSize:    model.OhmAmount(p.NewTickSize),
		NewMinPrice:    model.NewAmount(p.NewMinPrice, decimals),
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateAuctioneer(ctx, auctioneer, func(next *model.Auctioneer) {
		next.Target = model.OhmAmount(p.NewTarget)
		next.TickSize = model.OhmAmount(p.NewTickSize)
		next.MinPrice = model.NewAmount(p.NewMinPrice, decimals)
	})
	return err
}

func (h *Handlers) AuctionResult(ctx context.Context, ev Event[AuctionResultParams]) error {
	auctioneer, err := h.auctioneer(ctx, ev.Meta)
	if err != nil {
		return err
	}

	return h.record(ctx, model.KindAuctionResult, model.AuctionResultEvent{
		EventMeta:      ev.Meta.EventMeta(),
		AuctioneerID:   auctioneer.ID,
		OhmConvertible: model.OhmAmount(ev.Params.OhmConvertible),
		Target:         model.OhmAmount(ev.Params.Target),
		PeriodIndex:    ev.Params.PeriodIndex,
	})
}

func (h *Handlers) AuctionTrackingPeriodUpdated(
	ctx context.Context, ev Event[AuctionTrackingPeriodUpdatedParams],
) error {
	auctioneer, err := h.auctioneer(ctx, ev.Meta)
	if err != nil {
		return err
	}

	period := ev.Params.NewAuctionTrackingPeriod
	err = h.record(ctx, model.KindAuctionTrackingPeriodUpdated, model.AuctionTrackingPeriodUpdatedEvent{
		EventMeta:                ev.Meta.EventMeta(),
		AuctioneerID:             auctioneer.ID,
		NewAuctionTrackingPeriod: period,
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateAuctioneer(ctx, auctioneer, func(next *model.Auctioneer) {
		next.AuctionTrackingPeriod = period
	})
	return err
}

// Bid records a bid and refreshes the tick of the period it was placed in.
// The position is linked to the facility that operates it.
func (h *Handlers) Bid(ctx context.Context, ev Event[BidParams]) error {
	meta, p := ev.Meta, ev.Params

	auctioneer, err := h.auctioneer(ctx, meta)
	if err != nil {
		return err
	}
	period, err := h.resolver.GetOrCreateAuctioneerDepositPeriod(ctx, auctioneer, p.DepositAsset, p.DepositPeriod, meta.Block)
	if err != nil {
		return err
	}
	depositor, err := h.resolver.GetOrCreateDepositor(ctx, meta.ChainID, p.Bidder)
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
	tick, err := h.fetcher.AuctioneerCurrentTick(ctx, meta.ChainID, meta.Address, p.DepositPeriod, meta.Block)
	if err != nil {
		return err
	}

	err = h.record(ctx, model.KindBid, model.BidEvent{
		EventMeta:                 meta.EventMeta(),
		AuctioneerID:              auctioneer.ID,
		AuctioneerDepositPeriodID: period.ID,
		DepositorID:               depositor.ID,
		PositionID:                position.ID,
		DepositAmount:             model.NewAmount(p.DepositAmount, decimals),
		ConvertedAmount:           model.OhmAmount(p.ConvertedAmount),
		TickPrice:                 model.NewAmount(tick.Price, decimals),
		TickCapacity:              model.OhmAmount(tick.Capacity),
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateAuctioneerDepositPeriod(ctx, period, func(next *model.AuctioneerDepositPeriod) {
		next.TickPrice = model.NewAmount(tick.Price, decimals)
		next.TickCapacity = model.OhmAmount(tick.Capacity)
		next.TickLastUpdate = tick.LastUpdate
	})
	return err
}

func (h *Handlers) DepositPeriodEnableQueued(ctx context.Context, ev Event[DepositPeriodParams]) error {
	return h.depositPeriod(ctx, model.KindDepositPeriodEnableQueued, ev, nil)
}

func (h *Handlers) DepositPeriodEnabled(ctx context.Context, ev Event[DepositPeriodParams]) error {
	enabled := true
	return h.depositPeriod(ctx, model.KindDepositPeriodEnabled, ev, &enabled)
}

func (h *Handlers) DepositPeriodDisableQueued(ctx context.Context, ev Event[DepositPeriodParams]) error {
	return h.depositPeriod(ctx, model.KindDepositPeriodDisableQueued, ev, nil)
}

func (h *Handlers) DepositPeriodDisabled(ctx context.Context, ev Event[DepositPeriodParams]) error {
	enabled := false
	return h.depositPeriod(ctx, model.KindDepositPeriodDisabled, ev, &enabled)
}

// depositPeriod records a lifecycle event. A non-nil enabled is applied to
// the auctioneer deposit period; queued events leave it unchanged.
func (h *Handlers) depositPeriod(
	ctx context.Context, kind string, ev Event[DepositPeriodParams], enabled *bool,
) error {
	meta, p := ev.Meta, ev.Params

	auctioneer, err := h.auctioneer(ctx, meta)
	if err != nil {
		return err
	}
	period, err := h.resolver.GetOrCreateAuctioneerDepositPeriod(ctx, auctioneer, p.DepositAsset, p.DepositPeriod, meta.Block)
	if err != nil {
		return err
	}

	err = h.record(ctx, kind, model.DepositPeriodEvent{
		EventMeta:            meta.EventMeta(),
		AuctioneerID:         auctioneer.ID,
		DepositAssetPeriodID: period.DepositAssetPeriodID,
		PeriodMonths:         p.DepositPeriod,
	})
	if err != nil || enabled == nil {
		return err
	}

	_, err = h.resolver.UpdateAuctioneerDepositPeriod(ctx, period, func(next *model.AuctioneerDepositPeriod) {
		next.Enabled = *enabled
	})
	return err
}

func (h *Handlers) AuctioneerEnabled(ctx context.Context, ev Event[NoParams]) error {
	return h.toggleAuctioneer(ctx, model.KindAuctioneerEnabled, ev.Meta, true)
}

func (h *Handlers) AuctioneerDisabled(ctx context.Context, ev Event[NoParams]) error {
	return h.toggleAuctioneer(ctx, model.KindAuctioneerDisabled, ev.Meta, false)
}

func (h *Handlers) toggleAuctioneer(ctx context.Context, kind string, meta model.Origin, enabled bool) error {
	auctioneer, err := h.auctioneer(ctx, meta)
	if err != nil {
		return err
	}
	if err := h.record(ctx, kind, model.ToggleEvent{EventMeta: meta.EventMeta(), ContractID: auctioneer.ID}); err != nil {
		return err
	}

	_, err = h.resolver.UpdateAuctioneer(ctx, auctioneer, func(next *model.Auctioneer) {
		next.Enabled = enabled
	})
	return err
}

func (h *Handlers) TickStepUpdated(ctx context.Context, ev Event[TickStepUpdatedParams]) error {
	auctioneer, err := h.auctioneer(ctx, ev.Meta)
	if err != nil {
		return err
	}

	step := ev.Params.NewTickStep
	err = h.record(ctx, model.KindTickStepUpdated, model.TickStepUpdatedEvent{
		EventMeta:    ev.Meta.EventMeta(),
		AuctioneerID: auctioneer.ID,
		NewTickStep:  model.BpsAmount(step),
	})
	if err != nil {
		return err
	}

	_, err = h.resolver.UpdateAuctioneer(ctx, auctioneer, func(next *model.Auctioneer) {
		next.TickStep = model.BpsAmount(step)
	})
	return err
}
