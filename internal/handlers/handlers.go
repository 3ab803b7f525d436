// Package handlers turns decoded contract events into entity, history and
// snapshot writes. Every handler runs inside the store transaction opened
// for its event, so a returned error discards all of its writes.
package handlers

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/entities"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/internal/snapshot"
	"github.com/goran-ethernal/DepositIndexor/internal/store"
)

// Handlers holds what every event handler reads and writes through.
type Handlers struct {
	resolver  *entities.Resolver
	snapshots *snapshot.Manager
	tables    *store.Tables
	fetcher   *contracts.Fetcher
	log       *logger.Logger
}

// New creates the event handlers. A nil log discards output.
func New(resolver *entities.Resolver, snapshots *snapshot.Manager, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Handlers{
		resolver:  resolver,
		snapshots: snapshots,
		tables:    resolver.Tables(),
		fetcher:   resolver.Fetcher(),
		log:       log,
	}
}

func (h *Handlers) record(ctx context.Context, kind string, rec model.Entity) error {
	if err := h.tables.Record(ctx, kind, rec); err != nil {
		return fmt.Errorf("failed to record %s: %w", kind, err)
	}
	return nil
}

// refreshLinkedPosition re-reads the position behind a redemption, if any.
func (h *Handlers) refreshLinkedPosition(ctx context.Context, meta model.Origin, redemption model.Redemption) error {
	position, ok, err := h.resolver.RedemptionPosition(ctx, redemption)
	if err != nil || !ok {
		return err
	}
	_, err = h.resolver.RefreshPosition(ctx, meta, position)
	return err
}

// redemptionTarget returns the facility and asset addresses a redemption's
// snapshot deltas apply to.
func (h *Handlers) redemptionTarget(
	ctx context.Context, redemption model.Redemption,
) (facility, asset common.Address, err error) {
	f, err := h.resolver.GetFacility(ctx, redemption.FacilityID)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	period, err := h.resolver.GetDepositAssetPeriod(ctx, redemption.AssetPeriodID)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	depositAsset, err := h.resolver.GetDepositAsset(ctx, period.DepositAssetID)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return common.HexToAddress(f.Address), common.HexToAddress(depositAsset.Address), nil
}

func neg(v *big.Int) *big.Int {
	return new(big.Int).Neg(v)
}

// sub returns a - b without touching either operand.
func sub(a, b *big.Int) *big.Int {
	return new(big.Int).Sub(a, b)
}
