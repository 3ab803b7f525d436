package entities

import (
	"context"
	"math/big"

	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

// GetOrCreatePosition reads the position live and links it to the facility
// that operates it, its owner, its asset period and its receipt token.
func (r *Resolver) GetOrCreatePosition(
	ctx context.Context, origin model.Origin, positionID *big.Int,
) (model.Position, error) {
	chainID := origin.ChainID
	id := ids.Position(chainID, positionID)

	return getOrCreate(ctx, r.tables.Positions, id, func() (model.Position, error) {
		p, err := r.fetcher.Position(ctx, chainID, positionID, origin.Block)
		if err != nil {
			return model.Position{}, err
		}

		facility, err := r.GetOrCreateFacility(ctx, chainID, p.Operator)
		if err != nil {
			return model.Position{}, err
		}
		depositor, err := r.GetOrCreateDepositor(ctx, chainID, p.Owner)
		if err != nil {
			return model.Position{}, err
		}
		period, err := r.GetOrCreateDepositAssetPeriod(ctx, chainID, p.Asset, p.PeriodMonths)
		if err != nil {
			return model.Position{}, err
		}
		decimals, err := r.AssetPeriodDecimals(ctx, period.ID)
		if err != nil {
			return model.Position{}, err
		}
		receipt, err := r.GetOrCreateReceiptToken(ctx, chainID, p.Operator, p.Asset, p.PeriodMonths)
		if err != nil {
			return model.Position{}, err
		}

		return model.Position{
			Key:             model.Key{ID: id, ChainID: chainID},
			PositionID:      new(big.Int).Set(positionID),
			FacilityID:      facility.ID,
			DepositorID:     depositor.ID,
			AssetPeriodID:   period.ID,
			ReceiptTokenID:  receipt.ID,
			TxHash:          ids.Build(origin.TxHash),
			Block:           origin.Block,
			Timestamp:       origin.Timestamp,
			InitialAmount:   model.NewAmount(p.RemainingDeposit, decimals),
			RemainingAmount: model.NewAmount(p.RemainingDeposit, decimals),
			ConversionPrice: model.OptionalAmount(p.ConversionPrice, decimals),
			Expiry:          p.Expiry,
			Wrapped:         p.Wrapped,
		}, nil
	})
}

// GetPosition returns the position stored under id or a not-found error.
func (r *Resolver) GetPosition(ctx context.Context, id string) (model.Position, error) {
	return r.tables.Positions.MustGet(ctx, id)
}

func (r *Resolver) UpdatePosition(
	ctx context.Context, old model.Position, fn func(*model.Position),
) (model.Position, error) {
	return Update(ctx, r.tables.Positions, old, fn)
}

// RefreshPosition overwrites the remaining amount and conversion price of
// position with a live read.
func (r *Resolver) RefreshPosition(
	ctx context.Context, origin model.Origin, position model.Position,
) (model.Position, error) {
	p, err := r.fetcher.Position(ctx, position.ChainID, position.PositionID, origin.Block)
	if err != nil {
		return model.Position{}, err
	}
	decimals, err := r.AssetPeriodDecimals(ctx, position.AssetPeriodID)
	if err != nil {
		return model.Position{}, err
	}

	return r.UpdatePosition(ctx, position, func(next *model.Position) {
		next.RemainingAmount = model.NewAmount(p.RemainingDeposit, decimals)
		next.ConversionPrice = model.OptionalAmount(p.ConversionPrice, decimals)
		next.Wrapped = p.Wrapped
	})
}

// DepositorPositions returns every stored position of a depositor, ordered by id.
func (r *Resolver) DepositorPositions(ctx context.Context, depositorID string) ([]model.Position, error) {
	return r.tables.Positions.GetWhere(ctx, "depositorId", depositorID)
}
