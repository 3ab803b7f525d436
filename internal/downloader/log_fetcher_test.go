package downloader

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	rpcmocks "github.com/goran-ethernal/DepositIndexor/internal/rpc/mocks"
	itypes "github.com/goran-ethernal/DepositIndexor/internal/types"
	"github.com/goran-ethernal/DepositIndexor/pkg/fetcher"
)

const testChainID = 11155111

var (
	testAddr1  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testAddr2  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testTopic1 = common.HexToHash("0xaaaa")
	testTopic2 = common.HexToHash("0xbbbb")
)

type dataError struct {
	data string
}

func (e *dataError) Error() string  { return e.data }
func (e *dataError) ErrorData() any { return e.data }

func createTestHeader(blockNum uint64) *types.Header {
	return &types.Header{
		Number:     new(big.Int).SetUint64(blockNum),
		Difficulty: big.NewInt(1),
		GasLimit:   8000000,
		Time:       1000000 + blockNum,
	}
}

func createTestHeaders(blockNums ...uint64) []*types.Header {
	headers := make([]*types.Header, 0, len(blockNums))
	for _, b := range blockNums {
		headers = append(headers, createTestHeader(b))
	}
	return headers
}

func everyHundred(from, to uint64) []uint64 {
	var out []uint64
	for b := (from + 99) / 100 * 100; b <= to; b += 100 {
		out = append(out, b)
	}
	return out
}

func setupTestLogFetcher(t *testing.T, finality itypes.BlockFinality) (*LogFetcher, *rpcmocks.EthClient) {
	t.Helper()

	mockRPC := rpcmocks.NewEthClient(t, testChainID)

	log, err := logger.NewLogger("error", true)
	require.NoError(t, err)

	cfg := LogFetcherConfig{
		ChainID:      testChainID,
		ChunkSize:    100,
		Finality:     finality,
		PollInterval: 5 * time.Millisecond,
		Events: map[common.Address]map[common.Hash]struct{}{
			testAddr2: {testTopic2: {}, testTopic1: {}},
			testAddr1: {testTopic1: {}},
		},
		CallbackBlocks: everyHundred,
	}

	return NewLogFetcher(cfg, mockRPC, log), mockRPC
}

func rangeQuery(from, to uint64) any {
	return mock.MatchedBy(func(q ethereum.FilterQuery) bool {
		return q.FromBlock.Uint64() == from && q.ToBlock.Uint64() == to
	})
}

func TestNewLogFetcherBuildsSortedFilter(t *testing.T) {
	lf, _ := setupTestLogFetcher(t, itypes.FinalityFinalized)

	require.Equal(t, fetcher.ModeBackfill, lf.GetMode())
	require.Equal(t, []common.Address{testAddr1, testAddr2}, lf.addresses)
	require.Equal(t, []common.Hash{testTopic1, testTopic2}, lf.topics)
}

func TestLogFetcher_SetMode(t *testing.T) {
	lf, _ := setupTestLogFetcher(t, itypes.FinalityFinalized)

	lf.SetMode(fetcher.ModeLive)
	require.Equal(t, fetcher.ModeLive, lf.GetMode())

	lf.SetMode(fetcher.ModeBackfill)
	require.Equal(t, fetcher.ModeBackfill, lf.GetMode())
}

func TestLogFetcher_FetchRange(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityFinalized)
	ctx := context.Background()

	testLogs := []types.Log{
		{BlockNumber: 95, Address: testAddr1, Topics: []common.Hash{testTopic1}},
		{BlockNumber: 101, Address: testAddr2, Topics: []common.Hash{testTopic2}},
	}

	mockRPC.On("GetLogs", ctx, mock.MatchedBy(func(q ethereum.FilterQuery) bool {
		return q.FromBlock.Uint64() == 90 && q.ToBlock.Uint64() == 110 &&
			len(q.Addresses) == 2 && len(q.Topics) == 1 && len(q.Topics[0]) == 2
	})).Return(testLogs, nil).Once()
	// logs, the block callback at 100 and the last block
	mockRPC.On("BatchGetBlockHeaders", ctx, []uint64{95, 100, 101, 110}).
		Return(createTestHeaders(95, 100, 101, 110), nil).Once()

	result, err := lf.FetchRange(ctx, 90, 110)
	require.NoError(t, err)
	require.Equal(t, uint64(90), result.FromBlock)
	require.Equal(t, uint64(110), result.ToBlock)
	require.Len(t, result.Logs, 2)
	require.Len(t, result.Headers, 4)
	require.Equal(t, uint64(1000100), result.Headers[100].Time)
}

func TestLogFetcher_FetchRange_SplitsOnTooManyResults(t *testing.T) {
	tests := []struct {
		name   string
		errMsg string
		wantTo uint64
	}{
		{
			name:   "suggested range",
			errMsg: fmt.Sprintf("Query returned more than 10000 results. Try with this block range [%#x, %#x].", 1, 30),
			wantTo: 30,
		},
		{
			name:   "split in half",
			errMsg: "Query returned more than 10000 results",
			wantTo: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityFinalized)
			ctx := context.Background()

			mockRPC.On("GetLogs", ctx, rangeQuery(1, 100)).Return(nil, &dataError{data: tt.errMsg}).Once()
			mockRPC.On("GetLogs", ctx, rangeQuery(1, tt.wantTo)).Return([]types.Log{}, nil).Once()
			mockRPC.On("BatchGetBlockHeaders", ctx, []uint64{tt.wantTo}).
				Return(createTestHeaders(tt.wantTo), nil).Once()

			result, err := lf.FetchRange(ctx, 1, 100)
			require.NoError(t, err)
			require.Equal(t, tt.wantTo, result.ToBlock)
		})
	}
}

func TestLogFetcher_FetchRange_SingleBlockTooManyResults(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityFinalized)
	ctx := context.Background()

	mockRPC.On("GetLogs", ctx, rangeQuery(7, 7)).
		Return(nil, &dataError{data: "Query returned more than 10000 results"}).Once()

	_, err := lf.FetchRange(ctx, 7, 7)
	require.ErrorContains(t, err, "single block 7")
}

func TestLogFetcher_FetchRange_MissingLastHeader(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityFinalized)
	ctx := context.Background()

	mockRPC.On("GetLogs", ctx, rangeQuery(1, 10)).Return([]types.Log{}, nil).Once()
	mockRPC.On("BatchGetBlockHeaders", ctx, []uint64{10}).Return([]*types.Header{nil}, nil).Once()

	_, err := lf.FetchRange(ctx, 1, 10)
	require.ErrorContains(t, err, "header of block 10 not returned")
}

func TestLogFetcher_FetchNext_Backfill(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityFinalized)
	ctx := context.Background()

	mockRPC.On("GetFinalizedBlockHeader", ctx).Return(createTestHeader(1000), nil).Once()
	mockRPC.On("GetLogs", ctx, rangeQuery(201, 300)).Return([]types.Log{}, nil).Once()
	mockRPC.On("BatchGetBlockHeaders", ctx, []uint64{300}).Return(createTestHeaders(300), nil).Once()

	result, err := lf.FetchNext(ctx, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(201), result.FromBlock)
	require.Equal(t, uint64(300), result.ToBlock)
	require.Equal(t, fetcher.ModeBackfill, lf.GetMode())
}

func TestLogFetcher_FetchNext_SwitchesToLiveAndWaits(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalitySafe)
	ctx := context.Background()

	mockRPC.On("GetSafeBlockHeader", ctx).Return(createTestHeader(500), nil).Twice()
	mockRPC.On("GetSafeBlockHeader", ctx).Return(createTestHeader(502), nil).Once()
	mockRPC.On("GetLogs", ctx, rangeQuery(501, 502)).Return([]types.Log{}, nil).Once()
	mockRPC.On("BatchGetBlockHeaders", ctx, []uint64{502}).Return(createTestHeaders(502), nil).Once()

	result, err := lf.FetchNext(ctx, 500)
	require.NoError(t, err)
	require.Equal(t, fetcher.ModeLive, lf.GetMode())
	require.Equal(t, uint64(501), result.FromBlock)
	require.Equal(t, uint64(502), result.ToBlock)
}

func TestLogFetcher_FetchNext_LiveCancelled(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityFinalized)
	lf.SetMode(fetcher.ModeLive)

	ctx, cancel := context.WithCancel(context.Background())
	mockRPC.On("GetFinalizedBlockHeader", ctx).Return(createTestHeader(10), nil).Run(func(mock.Arguments) {
		cancel()
	})

	_, err := lf.FetchNext(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLogFetcher_FetchNext_HeadError(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityFinalized)
	ctx := context.Background()

	boom := errors.New("rpc down")
	mockRPC.On("GetFinalizedBlockHeader", ctx).Return(nil, boom).Once()

	_, err := lf.FetchNext(ctx, 10)
	require.ErrorIs(t, err, boom)
}
