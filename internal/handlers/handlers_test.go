package handlers_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/contracts/contractstest"
	"github.com/goran-ethernal/DepositIndexor/internal/entities"
	"github.com/goran-ethernal/DepositIndexor/internal/handlers"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/internal/snapshot"
	"github.com/goran-ethernal/DepositIndexor/internal/store"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
)

const chainID = contractstest.ChainID

var (
	assetAddr      = contractstest.AssetAddr
	auctioneerAddr = contractstest.AuctioneerAddr
	facilityAddr   = contractstest.FacilityAddr
	vaultAddr      = contractstest.VaultAddr
	userAddr       = contractstest.UserAddr
)

type fixture struct {
	world    *contractstest.Reader
	backend  *store.MemoryBackend
	tables   *store.Tables
	resolver *entities.Resolver
	handlers *handlers.Handlers
	router   *handlers.Router
}

func chainConfig() config.ChainConfig {
	return config.ChainConfig{
		ChainID:  chainID,
		Snapshot: config.SnapshotConfig{StartBlock: 0, Interval: 100},
		Contracts: []config.ContractConfig{
			{Name: "ConvertibleDepositAuctioneer", Kind: config.KindAuctioneer, Address: auctioneerAddr.Hex()},
			{Name: "ConvertibleDepositFacility", Kind: config.KindFacility, Address: facilityAddr.Hex()},
			{Name: "DepositRedemptionVault", Kind: config.KindRedemptionVault, Address: vaultAddr.Hex()},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	world := contractstest.NewWorld()
	backend := store.NewMemoryBackend()
	tables := store.NewTables(backend)
	resolver := entities.NewResolver(tables, contracts.NewFetcher(world))
	h := handlers.New(resolver, snapshot.NewManager(resolver, nil), nil)

	return &fixture{
		world:    world,
		backend:  backend,
		tables:   tables,
		resolver: resolver,
		handlers: h,
		router:   handlers.NewRouter(h, chainConfig()),
	}
}

// packLog builds a log the way the contract would emit it. values follow
// the event's input order.
func packLog(t *testing.T, contract abi.ABI, name string, address common.Address, values ...any) types.Log {
	t.Helper()

	event, ok := contract.Events[name]
	require.True(t, ok, name)
	require.Len(t, values, len(event.Inputs))

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
	return types.Log{Address: address, Topics: topics, Data: packed}
}

func origin(block uint64, logIndex uint, address common.Address) model.Origin {
	return model.Origin{
		ChainID:   chainID,
		Block:     block,
		Timestamp: 1700000000 + block*12,
		LogIndex:  logIndex,
		TxHash:    common.BigToHash(new(big.Int).SetUint64(block)),
		Address:   address,
	}
}

// handle routes log inside its own transaction, as the indexer does.
func (f *fixture) handle(t *testing.T, block uint64, log types.Log) error {
	t.Helper()

	log.BlockNumber = block
	return f.tables.Tx(context.Background(), func(ctx context.Context) error {
		handled, err := f.router.Route(ctx, origin(block, log.Index, log.Address), log)
		if err == nil {
			require.True(t, handled)
		}
		return err
	})
}

func (f *fixture) mustHandle(t *testing.T, block uint64, log types.Log) {
	t.Helper()
	require.NoError(t, f.handle(t, block, log))
}

// getRecord reads an event-history record of kind.
func getRecord[T model.Entity](ctx context.Context, f *fixture, kind, id string) (T, bool, error) {
	return store.NewStore[T](f.backend, kind).Get(ctx, id)
}

func u(v int64) *big.Int { return big.NewInt(v) }
