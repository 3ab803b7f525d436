package indexer_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/contracts/contractstest"
	"github.com/goran-ethernal/DepositIndexor/internal/entities"
	"github.com/goran-ethernal/DepositIndexor/internal/handlers"
	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/indexer"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/internal/snapshot"
	"github.com/goran-ethernal/DepositIndexor/internal/store"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
	pkgindexer "github.com/goran-ethernal/DepositIndexor/pkg/indexer"
)

const chainID = contractstest.ChainID

var (
	assetAddr    = contractstest.AssetAddr
	facilityAddr = contractstest.FacilityAddr
	userAddr     = contractstest.UserAddr
)

type fixture struct {
	world   *contractstest.Reader
	backend *store.MemoryBackend
	tables  *store.Tables
	indexer *indexer.ChainIndexer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	chain := config.ChainConfig{
		ChainID:  chainID,
		Name:     "sepolia",
		Snapshot: config.SnapshotConfig{StartBlock: 0, Interval: 100},
		Contracts: []config.ContractConfig{
			{Name: "ConvertibleDepositAuctioneer", Kind: config.KindAuctioneer,
				Address: contractstest.AuctioneerAddr.Hex(), StartBlock: 10},
			{Name: "ConvertibleDepositFacility", Kind: config.KindFacility,
				Address: facilityAddr.Hex(), StartBlock: 50},
		},
	}

	world := contractstest.NewWorld()
	backend := store.NewMemoryBackend()
	tables := store.NewTables(backend)
	resolver := entities.NewResolver(tables, contracts.NewFetcher(world))
	router := handlers.NewRouter(handlers.New(resolver, snapshot.NewManager(resolver, nil), nil), chain)

	return &fixture{
		world:   world,
		backend: backend,
		tables:  tables,
		indexer: indexer.New(chain, router, tables, nil),
	}
}

func packLog(t *testing.T, contract abi.ABI, name string, address common.Address, block uint64, index uint,
	values ...any) types.Log {
	t.Helper()

	event := contract.Events[name]
	topics := []common.Hash{event.ID}
	var data []any
	for i, arg := range event.Inputs {
		if !arg.Indexed {
			data = append(data, values[i])
			continue
		}
		topic, err := abi.MakeTopics([]any{values[i]})
		require.NoError(t, err)
		topics = append(topics, topic[0][0])
	}

	packed, err := event.Inputs.NonIndexed().Pack(data...)
	require.NoError(t, err)
	return types.Log{Address: address, Topics: topics, Data: packed, BlockNumber: block, Index: index}
}

func depositLog(t *testing.T, block uint64, index uint, positionID int64) types.Log {
	t.Helper()
	return packLog(t, contracts.FacilityABI, "CreatedDeposit", facilityAddr, block, index,
		assetAddr, userAddr, big.NewInt(positionID), uint8(3), big.NewInt(1_000_000_000))
}

func headers(blocks ...uint64) map[uint64]*types.Header {
	out := make(map[uint64]*types.Header, len(blocks))
	for _, b := range blocks {
		out[b] = &types.Header{Number: new(big.Int).SetUint64(b), Time: 1700000000 + b}
	}
	return out
}

func (f *fixture) seedPositions(ids ...int64) {
	for _, id := range ids {
		f.world.SetPosition(big.NewInt(id), contractstest.NewPosition(3, 1_000_000_000, 20_000_000))
	}
}

func (f *fixture) totalDeposited(t *testing.T, block uint64) decimal.Decimal {
	t.Helper()
	snap, err := f.tables.FacilityAssetSnapshots.MustGet(context.Background(),
		ids.FacilityAssetSnapshot(chainID, block, facilityAddr, assetAddr))
	require.NoError(t, err)
	return snap.TotalDeposited.Decimal
}

func TestHandleLogsOrdersLogsAndCallbacks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPositions(1, 2)

	enable := packLog(t, contracts.FacilityABI, "Enabled", facilityAddr, 60, 0)
	batch := pkgindexer.Batch{
		FromBlock: 51,
		ToBlock:   150,
		// delivered out of order on purpose
		Logs:    []types.Log{depositLog(t, 120, 0, 2), depositLog(t, 100, 3, 1), enable},
		Headers: headers(60, 100, 120),
	}

	require.NoError(t, f.indexer.HandleLogs(ctx, batch))

	// the callback at 100 ran after the deposit of block 100
	snap, err := f.tables.FacilitySnapshots.MustGet(ctx, ids.FacilitySnapshot(chainID, 100, facilityAddr))
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000100), snap.Timestamp)
	assert.True(t, decimal.NewFromInt(1000).Equal(f.totalDeposited(t, 100)))
	assert.True(t, decimal.NewFromInt(2000).Equal(f.totalDeposited(t, 120)))

	cursor, ok, err := f.indexer.Cursor(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(120), cursor.Block)
	assert.False(t, cursor.Callback)
}

func TestHandleLogsDropsLogsBeforeContractStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPositions(1)

	batch := pkgindexer.Batch{
		FromBlock: 1,
		ToBlock:   49,
		Logs:      []types.Log{depositLog(t, 40, 0, 1)},
		Headers:   headers(40),
	}
	require.NoError(t, f.indexer.HandleLogs(ctx, batch))

	assert.Zero(t, f.backend.Count(model.KindCreatedDeposit))
	_, ok, err := f.indexer.Cursor(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHandleLogsRedeliveryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPositions(1)

	batch := pkgindexer.Batch{
		FromBlock: 90,
		ToBlock:   110,
		Logs:      []types.Log{depositLog(t, 95, 0, 1), depositLog(t, 105, 0, 2)},
		Headers:   headers(95, 105),
	}

	// position 2 is unknown: the second deposit fails and rolls back alone
	err := f.indexer.HandleLogs(ctx, batch)
	require.Error(t, err)
	assert.Equal(t, 1, f.backend.Count(model.KindCreatedDeposit))

	cursor, ok, err := f.indexer.Cursor(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(100), cursor.Block)
	assert.True(t, cursor.Callback)

	f.seedPositions(2)
	require.NoError(t, f.indexer.HandleLogs(ctx, batch))
	require.NoError(t, f.indexer.HandleLogs(ctx, batch))

	assert.Equal(t, 2, f.backend.Count(model.KindCreatedDeposit))
	assert.True(t, decimal.NewFromInt(2000).Equal(f.totalDeposited(t, 105)))
}

func TestHandleLogsStopsOnReadError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedPositions(1)

	boom := errors.New("rpc down")
	f.world.FailWith("Position", boom)

	err := f.indexer.HandleLogs(ctx, pkgindexer.Batch{
		FromBlock: 60,
		ToBlock:   60,
		Logs:      []types.Log{depositLog(t, 60, 0, 1)},
		Headers:   headers(60),
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, f.backend.Count(model.KindPosition))
}

func TestHandleLogsRequiresLogHeaders(t *testing.T) {
	f := newFixture(t)
	f.seedPositions(1)

	err := f.indexer.HandleLogs(context.Background(), pkgindexer.Batch{
		FromBlock: 60,
		ToBlock:   60,
		Logs:      []types.Log{depositLog(t, 60, 0, 1)},
	})
	require.ErrorContains(t, err, "missing header of block 60")
}

func TestChainIndexerDescribesChain(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "sepolia", f.indexer.Name())
	assert.Equal(t, chainID, f.indexer.ChainID())
	assert.Equal(t, uint64(10), f.indexer.StartBlock())
	assert.Equal(t, []uint64{100, 200}, f.indexer.CallbackBlocks(1, 250))

	events := f.indexer.EventsToIndex()
	require.Len(t, events, 2)
	_, ok := events[facilityAddr][contracts.FacilityABI.Events["CreatedDeposit"].ID]
	assert.True(t, ok)
	_, ok = events[facilityAddr][contracts.AuctioneerABI.Events["Bid"].ID]
	assert.False(t, ok)

	err := f.indexer.HandleReorg(context.Background(), 10)
	require.ErrorIs(t, err, indexer.ErrReorgNotSupported)
}
