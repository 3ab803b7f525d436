package handlers_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/handlers"
	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
)

func TestRouteSkipsUnknownLogs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name string
		log  types.Log
	}{
		{name: "no topics", log: types.Log{Address: auctioneerAddr}},
		{
			name: "unknown contract",
			log:  packLog(t, contracts.AuctioneerABI, "Enabled", common.HexToAddress("0x99")),
		},
		{
			name: "event of another contract kind",
			log:  packLog(t, contracts.FacilityABI, "OperatorAuthorized", auctioneerAddr, userAddr),
		},
		{
			name: "unrelated topic",
			log:  types.Log{Address: facilityAddr, Topics: []common.Hash{common.HexToHash("0x1234")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handled, err := f.router.Route(ctx, origin(100, 0, tt.log.Address), tt.log)
			require.NoError(t, err)
			assert.False(t, handled)
		})
	}
	assert.Zero(t, f.backend.Count(model.KindAuctioneer))
}

func TestRouteRejectsMalformedData(t *testing.T) {
	f := newFixture(t)

	log := packLog(t, contracts.AuctioneerABI, "AuctionParametersUpdated", auctioneerAddr,
		assetAddr, u(1), u(2), u(3))
	log.Data = log.Data[:40]

	err := f.handle(t, 100, log)
	require.ErrorContains(t, err, "AuctionParametersUpdated")
	assert.Zero(t, f.backend.Count(model.KindAuctionParametersUpdated))
}

func TestEventsToIndexCoversEveryContractKind(t *testing.T) {
	f := newFixture(t)
	topics := f.router.EventsToIndex()

	for _, id := range []common.Hash{
		contracts.AuctioneerABI.Events["Bid"].ID,
		contracts.AuctioneerABI.Events["Enabled"].ID,
		contracts.FacilityABI.Events["ConvertedDeposit"].ID,
		contracts.RedemptionVaultABI.Events["LoanRepaid"].ID,
	} {
		_, ok := topics[id]
		assert.True(t, ok, id.Hex())
	}

	assert.ElementsMatch(t, []common.Address{auctioneerAddr, facilityAddr, vaultAddr}, f.router.Addresses())
	assert.Equal(t, chainID, f.router.ChainID())
}

func TestHandleBlockSnapshotsEnabledContracts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	header := func(n int64) *types.Header {
		return &types.Header{Number: big.NewInt(n), Time: 1700000000 + uint64(n)}
	}

	// nothing known yet
	require.NoError(t, f.router.HandleBlock(ctx, header(200)))
	assert.Zero(t, f.backend.Count(model.KindAuctioneerSnapshot))

	// known but disabled
	f.mustHandle(t, 150, packLog(t, contracts.AuctioneerABI, "Disabled", auctioneerAddr))
	require.NoError(t, f.router.HandleBlock(ctx, header(200)))
	assert.Zero(t, f.backend.Count(model.KindAuctioneerSnapshot))

	f.mustHandle(t, 250, packLog(t, contracts.AuctioneerABI, "Enabled", auctioneerAddr))
	f.mustHandle(t, 251, packLog(t, contracts.FacilityABI, "Enabled", facilityAddr))
	f.mustHandle(t, 252, packLog(t, contracts.FacilityABI, "AssetCommitted", facilityAddr,
		assetAddr, auctioneerAddr, u(1_000_000)))

	// not due
	require.NoError(t, f.router.HandleBlock(ctx, header(299)))
	assert.Zero(t, f.backend.Count(model.KindAuctioneerSnapshot))

	require.NoError(t, f.router.HandleBlock(ctx, header(300)))
	snap, err := f.tables.AuctioneerSnapshots.MustGet(ctx, ids.AuctioneerSnapshot(chainID, 300, auctioneerAddr))
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000300), snap.Timestamp)

	facilitySnap, err := f.tables.FacilitySnapshots.MustGet(ctx, ids.FacilitySnapshot(chainID, 300, facilityAddr))
	require.NoError(t, err)
	require.Len(t, facilitySnap.AssetSnapshotIDs, 1)
}

func TestHandleBlockFallsBackToBlockTimestamp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.world.Timestamps[400] = 1234

	f.mustHandle(t, 350, packLog(t, contracts.AuctioneerABI, "Enabled", auctioneerAddr))
	require.NoError(t, f.router.HandleBlock(ctx, &types.Header{Number: big.NewInt(400)}))

	snap, err := f.tables.AuctioneerSnapshots.MustGet(ctx, ids.AuctioneerSnapshot(chainID, 400, auctioneerAddr))
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), snap.Timestamp)
	assert.Equal(t, 1, f.world.Calls("BlockTimestamp"))
}

func TestHandleBlockSelectsContractsByName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.mustHandle(t, 150, packLog(t, contracts.AuctioneerABI, "Enabled", auctioneerAddr))
	f.mustHandle(t, 151, packLog(t, contracts.FacilityABI, "Enabled", facilityAddr))
	f.mustHandle(t, 152, packLog(t, contracts.FacilityABI, "AssetCommitted", facilityAddr,
		assetAddr, auctioneerAddr, u(1_000_000)))

	// an explicit kind does not make a contract snapshot-eligible
	chain := chainConfig()
	chain.Contracts[1].Name = "DepositManager"
	router := handlers.NewRouter(f.handlers, chain)

	require.NoError(t, router.HandleBlock(ctx, &types.Header{Number: big.NewInt(200), Time: 1700000200}))
	_, ok, err := f.tables.AuctioneerSnapshots.Get(ctx, ids.AuctioneerSnapshot(chainID, 200, auctioneerAddr))
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = f.tables.FacilitySnapshots.Get(ctx, ids.FacilitySnapshot(chainID, 200, facilityAddr))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRouterEvents(t *testing.T) {
	events := handlers.NewRouter(nil, config.ChainConfig{}).Events()

	require.Len(t, events, 3)
	assert.Len(t, events[config.KindAuctioneer], 11)
	assert.Len(t, events[config.KindFacility], 12)
	assert.Len(t, events[config.KindRedemptionVault], 14)
	assert.Equal(t, "AuctionParametersUpdated", events[config.KindAuctioneer][0])
}
