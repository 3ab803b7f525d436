package contracts_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/contracts/contractstest"
)

const chainID = uint64(11155111)

var (
	usds     = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	facility = common.HexToAddress("0x2222222222222222222222222222222222222222")
	manager  = common.HexToAddress("0x4444444444444444444444444444444444444444")
	tokens   = common.HexToAddress("0x5555555555555555555555555555555555555555")
)

func newReader() *contractstest.Reader {
	r := contractstest.NewReader()
	r.Assets[usds] = contractstest.Asset{Decimals: 18, Name: "USDS Stablecoin", Symbol: "USDS"}
	r.Facilities[facility] = &contractstest.Facility{
		DepositManager: manager,
		Assets: map[common.Address]*contractstest.FacilityAsset{
			usds: {Committed: big.NewInt(500), Yield: big.NewInt(7), ReclaimRates: map[uint8]*big.Int{6: big.NewInt(9000)}},
		},
	}
	r.DepositManagers[manager] = contractstest.DepositManager{TokenManager: tokens}
	return r
}

func TestCachedEffectReadsOnce(t *testing.T) {
	ctx := context.Background()
	reader := newReader()
	f := contracts.NewFetcher(reader)

	for range 3 {
		decimals, err := f.AssetDecimals(ctx, chainID, usds)
		require.NoError(t, err)
		require.Equal(t, uint8(18), decimals)
	}
	require.Equal(t, 1, reader.Calls("AssetDecimals"))

	// another chain is another key
	_, err := f.AssetDecimals(ctx, 1, usds)
	require.NoError(t, err)
	require.Equal(t, 2, reader.Calls("AssetDecimals"))

	rate, err := f.FacilityReclaimRate(ctx, chainID, facility, usds, 6)
	require.NoError(t, err)
	require.Equal(t, int64(9000), rate.Int64())
	_, err = f.FacilityReclaimRate(ctx, chainID, facility, usds, 6)
	require.NoError(t, err)
	require.Equal(t, 1, reader.Calls("FacilityReclaimRate"))
}

func TestLiveEffectAlwaysReads(t *testing.T) {
	ctx := context.Background()
	reader := newReader()
	f := contracts.NewFetcher(reader)

	for range 3 {
		committed, err := f.FacilityCommittedAmount(ctx, chainID, facility, usds, 100)
		require.NoError(t, err)
		require.Equal(t, int64(500), committed.Int64())
	}
	require.Equal(t, 3, reader.Calls("FacilityCommittedAmount"))
}

func TestReadErrorIsWrappedAndNotCached(t *testing.T) {
	ctx := context.Background()
	reader := newReader()
	f := contracts.NewFetcher(reader)

	boom := errors.New("execution reverted")
	reader.FailWith("AssetSymbol", boom)

	_, err := f.AssetSymbol(ctx, chainID, usds)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)

	var readErr *contracts.ContractReadError
	require.ErrorAs(t, err, &readErr)
	require.Equal(t, contracts.EffectAssetSymbol, readErr.Effect)
	require.Equal(t, chainID, readErr.ChainID)
	require.Equal(t, usds, readErr.Address)

	reader.FailWith("AssetSymbol", nil)
	symbol, err := f.AssetSymbol(ctx, chainID, usds)
	require.NoError(t, err)
	require.Equal(t, "USDS", symbol)
	require.Equal(t, 2, reader.Calls("AssetSymbol"))
}

func TestReceiptTokenIsStaged(t *testing.T) {
	ctx := context.Background()
	reader := newReader()
	f := contracts.NewFetcher(reader)

	tokenManager, tokenID, err := f.ReceiptToken(ctx, chainID, facility, usds, 6)
	require.NoError(t, err)
	require.Equal(t, tokens, tokenManager)
	require.Equal(t, int64(6), tokenID.Int64())

	_, _, err = f.ReceiptToken(ctx, chainID, facility, usds, 3)
	require.NoError(t, err)

	require.Equal(t, 1, reader.Calls("FacilityDepositManager"))
	require.Equal(t, 1, reader.Calls("ReceiptTokenManager"))
	require.Equal(t, 2, reader.Calls("ReceiptTokenID"))
}

func TestPositionsEmpty(t *testing.T) {
	reader := newReader()
	f := contracts.NewFetcher(reader)

	positions, err := f.Positions(context.Background(), chainID, nil, 1)
	require.NoError(t, err)
	require.Empty(t, positions)
	require.Equal(t, 0, reader.TotalCalls())
}

type blockRecorder struct {
	*contractstest.Reader
	blocks []*big.Int
}

func (b *blockRecorder) FacilityClaimableYield(
	ctx context.Context, chain uint64, facility, asset common.Address, block *big.Int,
) (*big.Int, error) {
	b.blocks = append(b.blocks, block)
	return b.Reader.FacilityClaimableYield(ctx, chain, facility, asset, block)
}

func TestPinnedReads(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		pin  bool
		want *big.Int
	}{
		{name: "head", pin: false, want: nil},
		{name: "pinned", pin: true, want: big.NewInt(1234)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &blockRecorder{Reader: newReader()}
			f := contracts.NewFetcher(reader, contracts.WithPinnedReads(tt.pin))
			require.Equal(t, tt.pin, f.PinnedReads())

			_, err := f.FacilityClaimableYield(ctx, chainID, facility, usds, 1234)
			require.NoError(t, err)
			require.Len(t, reader.blocks, 1)
			require.Equal(t, tt.want, reader.blocks[0])
		})
	}
}

type mapRemote struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapRemote) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapRemote) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestRemoteCacheSharedAcrossFetchers(t *testing.T) {
	ctx := context.Background()
	remote := &mapRemote{data: make(map[string][]byte)}

	first := newReader()
	name, err := contracts.NewFetcher(first, contracts.WithRemoteCache(remote)).AssetName(ctx, chainID, usds)
	require.NoError(t, err)
	require.Equal(t, "USDS Stablecoin", name)
	require.Equal(t, 1, first.Calls("AssetName"))
	require.Len(t, remote.data, 1)

	second := newReader()
	f := contracts.NewFetcher(second, contracts.WithRemoteCache(remote))
	name, err = f.AssetName(ctx, chainID, usds)
	require.NoError(t, err)
	require.Equal(t, "USDS Stablecoin", name)
	require.Equal(t, 0, second.Calls("AssetName"))

	// live effects bypass the remote
	_, err = f.FacilityCommittedAmount(ctx, chainID, facility, usds, 1)
	require.NoError(t, err)
	require.Len(t, remote.data, 1)
}
