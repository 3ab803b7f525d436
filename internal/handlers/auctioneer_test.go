package handlers_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/contracts/contractstest"
	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

func TestAuctioneerEnabledThenParameters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := contracts.AuctioneerABI

	f.mustHandle(t, 100, packLog(t, a, "Enabled", auctioneerAddr))
	f.mustHandle(t, 101, packLog(t, a, "AuctionParametersUpdated", auctioneerAddr,
		assetAddr, u(5_000_000_000), u(100_000_000), u(2_000_000_000)))

	auctioneer, err := f.resolver.GetAuctioneer(ctx, ids.Address(chainID, auctioneerAddr))
	require.NoError(t, err)
	assert.True(t, auctioneer.Enabled)
	assert.True(t, decimal.NewFromInt(5).Equal(auctioneer.Target.Decimal))
	assert.True(t, decimal.RequireFromString("0.1").Equal(auctioneer.TickSize.Decimal))
	assert.True(t, decimal.NewFromInt(2000).Equal(auctioneer.MinPrice.Decimal))
	assert.Equal(t, ids.Address(chainID, assetAddr), auctioneer.DepositAssetID)

	assert.Equal(t, 1, f.backend.Count(model.KindAuctioneerEnabled))
	assert.Equal(t, 1, f.backend.Count(model.KindAuctionParametersUpdated))

	rec, ok, err := getRecord[model.AuctionParametersUpdatedEvent](ctx, f, model.KindAuctionParametersUpdated,
		ids.BlockEvent(chainID, 101, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(101), rec.Block)
	assert.Equal(t, ids.Addr(auctioneerAddr), rec.Contract)
}

func TestAuctioneerToggleAndTickStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := contracts.AuctioneerABI

	f.mustHandle(t, 100, packLog(t, a, "Enabled", auctioneerAddr))
	f.mustHandle(t, 101, packLog(t, a, "TickStepUpdated", auctioneerAddr, assetAddr, u(11_000)))
	f.mustHandle(t, 102, packLog(t, a, "AuctionTrackingPeriodUpdated", auctioneerAddr, assetAddr, uint8(14)))
	f.mustHandle(t, 103, packLog(t, a, "Disabled", auctioneerAddr))

	auctioneer, err := f.resolver.GetAuctioneer(ctx, ids.Address(chainID, auctioneerAddr))
	require.NoError(t, err)
	assert.False(t, auctioneer.Enabled)
	assert.True(t, decimal.RequireFromString("1.1").Equal(auctioneer.TickStep.Decimal))
	assert.Equal(t, uint8(14), auctioneer.AuctionTrackingPeriod)
}

func TestDepositPeriodLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := contracts.AuctioneerABI

	periodID := ids.AuctioneerDepositPeriod(chainID, auctioneerAddr, assetAddr, 3)

	f.mustHandle(t, 100, packLog(t, a, "DepositPeriodEnableQueued", auctioneerAddr, assetAddr, uint8(3)))
	period, err := f.resolver.GetAuctioneerDepositPeriod(ctx, periodID)
	require.NoError(t, err)
	assert.False(t, period.Enabled)

	f.mustHandle(t, 101, packLog(t, a, "DepositPeriodEnabled", auctioneerAddr, assetAddr, uint8(3)))
	period, err = f.resolver.GetAuctioneerDepositPeriod(ctx, periodID)
	require.NoError(t, err)
	assert.True(t, period.Enabled)

	f.mustHandle(t, 102, packLog(t, a, "DepositPeriodDisableQueued", auctioneerAddr, assetAddr, uint8(3)))
	f.mustHandle(t, 103, packLog(t, a, "DepositPeriodDisabled", auctioneerAddr, assetAddr, uint8(3)))
	period, err = f.resolver.GetAuctioneerDepositPeriod(ctx, periodID)
	require.NoError(t, err)
	assert.False(t, period.Enabled)

	for _, kind := range []string{
		model.KindDepositPeriodEnableQueued, model.KindDepositPeriodEnabled,
		model.KindDepositPeriodDisableQueued, model.KindDepositPeriodDisabled,
	} {
		assert.Equal(t, 1, f.backend.Count(kind), kind)
	}
}

func TestBidRefreshesTick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := contracts.AuctioneerABI

	f.world.SetPosition(u(11), contractstest.NewPosition(3, 500_000_000, 25_000_000))
	f.world.Auctioneers[auctioneerAddr].Ticks[3] = contracts.Tick{
		Price: u(26_000_000), Capacity: u(400_000_000), LastUpdate: 1700000500,
	}

	f.mustHandle(t, 100, packLog(t, a, "Bid", auctioneerAddr,
		userAddr, assetAddr, uint8(3), u(500_000_000), u(20_000_000_000), u(11)))

	bid, ok, err := getRecord[model.BidEvent](ctx, f, model.KindBid, ids.BlockEvent(chainID, 100, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ids.Position(chainID, u(11)), bid.PositionID)
	assert.Equal(t, ids.Address(chainID, userAddr), bid.DepositorID)
	assert.True(t, decimal.NewFromInt(500).Equal(bid.DepositAmount.Decimal))
	assert.True(t, decimal.NewFromInt(20).Equal(bid.ConvertedAmount.Decimal))
	assert.True(t, decimal.NewFromInt(26).Equal(bid.TickPrice.Decimal))

	period, err := f.resolver.GetAuctioneerDepositPeriod(ctx,
		ids.AuctioneerDepositPeriod(chainID, auctioneerAddr, assetAddr, 3))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(26).Equal(period.TickPrice.Decimal))
	assert.True(t, decimal.RequireFromString("0.4").Equal(period.TickCapacity.Decimal))
	assert.Equal(t, uint64(1700000500), period.TickLastUpdate)

	position, err := f.resolver.GetPosition(ctx, bid.PositionID)
	require.NoError(t, err)
	assert.Equal(t, ids.Address(chainID, facilityAddr), position.FacilityID)
}
