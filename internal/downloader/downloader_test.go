package downloader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	icommon "github.com/goran-ethernal/DepositIndexor/internal/common"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	rpcmocks "github.com/goran-ethernal/DepositIndexor/internal/rpc/mocks"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
	"github.com/goran-ethernal/DepositIndexor/pkg/fetcher"
	"github.com/goran-ethernal/DepositIndexor/pkg/indexer"
)

// recordingIndexer implements the indexer.Indexer interface for testing.
type recordingIndexer struct {
	chainID    uint64
	startBlock uint64
	fail       func(call int) error

	mu      sync.Mutex
	batches []indexer.Batch
}

var _ indexer.Indexer = (*recordingIndexer)(nil)

func (r *recordingIndexer) Name() string    { return "recording" }
func (r *recordingIndexer) ChainID() uint64 { return r.chainID }

func (r *recordingIndexer) EventsToIndex() map[common.Address]map[common.Hash]struct{} {
	return map[common.Address]map[common.Hash]struct{}{testAddr1: {testTopic1: {}}}
}

func (r *recordingIndexer) StartBlock() uint64                 { return r.startBlock }
func (r *recordingIndexer) CallbackBlocks(_, _ uint64) []uint64 { return nil }

func (r *recordingIndexer) HandleLogs(_ context.Context, batch indexer.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches = append(r.batches, batch)
	if r.fail != nil {
		return r.fail(len(r.batches))
	}
	return nil
}

func (r *recordingIndexer) HandleReorg(context.Context, uint64) error { return nil }

func testChainConfig(maxAttempts int) config.ChainConfig {
	return config.ChainConfig{
		ChainID:      testChainID,
		Finality:     "finalized",
		ChunkSize:    100,
		PollInterval: icommon.NewDuration(time.Millisecond),
		Retry:        &config.RetryConfig{MaxAttempts: maxAttempts},
	}
}

type downloaderFixture struct {
	downloader *Downloader
	rpc        *rpcmocks.EthClient
	sync       *SyncManager
	indexer    *recordingIndexer
	sleeps     []time.Duration
}

func setupTestDownloader(t *testing.T, maxAttempts int, startBlock uint64) *downloaderFixture {
	t.Helper()

	log, err := logger.NewLogger("error", true)
	require.NoError(t, err)

	sm, err := NewSyncManager(context.Background(), setupTestDB(t), testChainID, log)
	require.NoError(t, err)

	mockRPC := rpcmocks.NewEthClient(t, testChainID)
	d, err := New(testChainConfig(maxAttempts), mockRPC, sm, log)
	require.NoError(t, err)

	f := &downloaderFixture{
		downloader: d,
		rpc:        mockRPC,
		sync:       sm,
		indexer:    &recordingIndexer{chainID: testChainID, startBlock: startBlock},
	}
	d.sleep = func(ctx context.Context, wait time.Duration) error {
		f.sleeps = append(f.sleeps, wait)
		return ctx.Err()
	}
	require.NoError(t, d.RegisterIndexer(f.indexer))

	return f
}

// expectHeads makes the trusted head return head for n calls, then cancels ctx.
func (f *downloaderFixture) expectHeads(head uint64, n int, cancel context.CancelFunc) {
	f.rpc.On("GetFinalizedBlockHeader", mock.Anything).Return(createTestHeader(head), nil).Times(n)
	f.rpc.On("GetFinalizedBlockHeader", mock.Anything).Return(createTestHeader(head), nil).
		Run(func(mock.Arguments) { cancel() }).Once()
}

func (f *downloaderFixture) expectRange(from, to uint64, logs []types.Log, headerBlocks []uint64, times int) {
	f.rpc.On("GetLogs", mock.Anything, rangeQuery(from, to)).Return(logs, nil).Times(times)
	f.rpc.On("BatchGetBlockHeaders", mock.Anything, headerBlocks).
		Return(createTestHeaders(headerBlocks...), nil).Times(times)
}

func TestNewValidatesArguments(t *testing.T) {
	log := logger.NewNopLogger()
	mockRPC := rpcmocks.NewEthClient(t, testChainID)
	sm := &SyncManager{}

	_, err := New(testChainConfig(1), nil, sm, log)
	require.ErrorContains(t, err, "RPC client is required")

	_, err = New(testChainConfig(1), mockRPC, nil, log)
	require.ErrorContains(t, err, "SyncManager is required")

	_, err = New(testChainConfig(1), mockRPC, sm, nil)
	require.ErrorContains(t, err, "Logger is required")

	cfg := testChainConfig(1)
	cfg.Finality = "latest"
	_, err = New(cfg, mockRPC, sm, log)
	require.ErrorContains(t, err, "invalid finality")
}

func TestRegisterIndexer(t *testing.T) {
	f := setupTestDownloader(t, 1, 1)

	err := f.downloader.RegisterIndexer(f.indexer)
	require.ErrorIs(t, err, ErrIndexerRegistered)

	d, err := New(testChainConfig(1), f.rpc, f.sync, logger.NewNopLogger())
	require.NoError(t, err)
	err = d.RegisterIndexer(&recordingIndexer{chainID: 1})
	require.ErrorContains(t, err, "bound to chain 1")

	require.ErrorIs(t, d.Download(context.Background()), ErrNoIndexer)
}

func TestDownloadBackfillsThenTailsLive(t *testing.T) {
	f := setupTestDownloader(t, 3, 101)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logs := []types.Log{{BlockNumber: 150, Address: testAddr1, Topics: []common.Hash{testTopic1}}}
	f.expectHeads(250, 3, cancel)
	f.expectRange(101, 200, logs, []uint64{150, 200}, 1)
	f.expectRange(201, 250, []types.Log{}, []uint64{250}, 1)

	err := f.downloader.Download(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, f.indexer.batches, 2)
	require.Equal(t, uint64(101), f.indexer.batches[0].FromBlock)
	require.Equal(t, uint64(200), f.indexer.batches[0].ToBlock)
	require.Len(t, f.indexer.batches[0].Logs, 1)
	require.NotNil(t, f.indexer.batches[0].Headers[150])
	require.Equal(t, uint64(201), f.indexer.batches[1].FromBlock)

	state, err := f.sync.GetState(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(250), state.LastIndexedBlock)
	require.Equal(t, createTestHeader(250).Hash(), state.LastIndexedBlockHash)
	require.Equal(t, fetcher.ModeBackfill, state.GetMode())
	require.Equal(t, fetcher.ModeLive, f.downloader.logFetcher.GetMode())
}

func TestDownloadResumesFromCheckpoint(t *testing.T) {
	f := setupTestDownloader(t, 3, 101)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, f.sync.SaveCheckpoint(ctx, 300, common.HexToHash("0x300"), fetcher.ModeLive))

	f.expectHeads(320, 2, cancel)
	f.expectRange(301, 320, []types.Log{}, []uint64{320}, 1)

	err := f.downloader.Download(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, f.indexer.batches, 1)
	require.Equal(t, uint64(301), f.indexer.batches[0].FromBlock)
}

func TestDownloadRedeliversFailedBatch(t *testing.T) {
	f := setupTestDownloader(t, 3, 101)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("position read failed")
	f.indexer.fail = func(call int) error {
		if call == 1 {
			return boom
		}
		return nil
	}

	f.expectHeads(150, 3, cancel)
	f.expectRange(101, 150, []types.Log{}, []uint64{150}, 2)

	err := f.downloader.Download(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, f.indexer.batches, 2)
	require.Equal(t, f.indexer.batches[0].FromBlock, f.indexer.batches[1].FromBlock)
	require.Len(t, f.sleeps, 1)

	lastBlock, err := f.sync.GetLastIndexedBlock(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(150), lastBlock)
}

func TestDownloadGivesUpAfterMaxAttempts(t *testing.T) {
	f := setupTestDownloader(t, 2, 101)

	boom := errors.New("position read failed")
	f.indexer.fail = func(int) error { return boom }

	f.rpc.On("GetFinalizedBlockHeader", mock.Anything).Return(createTestHeader(150), nil).Twice()
	f.expectRange(101, 150, []types.Log{}, []uint64{150}, 2)

	err := f.downloader.Download(context.Background())
	require.ErrorIs(t, err, boom)
	require.Len(t, f.sleeps, 1)

	state, err := f.sync.GetState(context.Background())
	require.NoError(t, err)
	require.False(t, state.Started())
}

func TestSleepCtx(t *testing.T) {
	require.NoError(t, sleepCtx(context.Background(), time.Millisecond))
	require.NoError(t, sleepCtx(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}
