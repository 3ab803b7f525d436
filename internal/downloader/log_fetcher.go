package downloader

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/internal/metrics"
	irpc "github.com/goran-ethernal/DepositIndexor/internal/rpc"
	itypes "github.com/goran-ethernal/DepositIndexor/internal/types"
	"github.com/goran-ethernal/DepositIndexor/pkg/fetcher"
	"github.com/goran-ethernal/DepositIndexor/pkg/rpc"
)

// Compile-time check to ensure LogFetcher implements fetcher.LogFetcher interface.
var _ fetcher.LogFetcher = (*LogFetcher)(nil)

// LogFetcherConfig contains configuration for the LogFetcher.
type LogFetcherConfig struct {
	ChainID uint64

	// ChunkSize is the number of blocks to fetch per request
	ChunkSize uint64

	// Finality selects the trusted head
	Finality itypes.BlockFinality

	// PollInterval is how long live mode waits for the head to move
	PollInterval time.Duration

	// Events are the topics to fetch per contract address
	Events map[common.Address]map[common.Hash]struct{}

	// CallbackBlocks lists the blocks of a range that need a header for a block callback
	CallbackBlocks func(from, to uint64) []uint64
}

// LogFetcher fetches logs and the headers they need from one chain.
type LogFetcher struct {
	cfg       LogFetcherConfig
	rpc       rpc.EthClient
	log       *logger.Logger
	mode      fetcher.FetchMode
	addresses []common.Address
	topics    []common.Hash
}

// NewLogFetcher creates a new LogFetcher instance.
func NewLogFetcher(cfg LogFetcherConfig, rpcClient rpc.EthClient, log *logger.Logger) *LogFetcher {
	addresses := make([]common.Address, 0, len(cfg.Events))
	seen := make(map[common.Hash]struct{})
	var topics []common.Hash
	for addr, set := range cfg.Events {
		addresses = append(addresses, addr)
		for topic := range set {
			if _, ok := seen[topic]; !ok {
				seen[topic] = struct{}{}
				topics = append(topics, topic)
			}
		}
	}
	slices.SortFunc(addresses, func(a, b common.Address) int { return a.Cmp(b) })
	slices.SortFunc(topics, func(a, b common.Hash) int { return a.Cmp(b) })

	if cfg.CallbackBlocks == nil {
		cfg.CallbackBlocks = func(uint64, uint64) []uint64 { return nil }
	}

	return &LogFetcher{
		cfg:       cfg,
		rpc:       rpcClient,
		log:       log,
		mode:      fetcher.ModeBackfill,
		addresses: addresses,
		topics:    topics,
	}
}

// SetMode changes the fetcher's operating mode.
func (lf *LogFetcher) SetMode(mode fetcher.FetchMode) {
	lf.log.Infow("switching fetch mode", "from", lf.mode, "to", mode)
	lf.mode = mode
}

// GetMode returns the current operating mode.
func (lf *LogFetcher) GetMode() fetcher.FetchMode {
	return lf.mode
}

// FetchRange fetches logs of a block range together with the headers of the
// blocks that have a log or a block callback, and of the last block.
func (lf *LogFetcher) FetchRange(ctx context.Context, fromBlock, toBlock uint64) (*fetcher.FetchResult, error) {
	lf.log.Debugw("fetching range",
		"from_block", fromBlock,
		"to_block", toBlock,
		"mode", lf.mode,
	)

	logs := []types.Log{}
	if len(lf.addresses) > 0 {
		var err error
		logs, toBlock, err = lf.fetchLogsWithRetry(ctx, fromBlock, toBlock)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch logs: %w", err)
		}
	}

	headers, err := lf.fetchHeaders(ctx, logs, fromBlock, toBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch headers: %w", err)
	}

	lf.log.Infow("fetched range",
		"from_block", fromBlock,
		"to_block", toBlock,
		"logs_count", len(logs),
		"headers_count", len(headers),
	)

	return &fetcher.FetchResult{
		Logs:      logs,
		Headers:   headers,
		FromBlock: fromBlock,
		ToBlock:   toBlock,
	}, nil
}

func (lf *LogFetcher) fetchHeaders(
	ctx context.Context, logs []types.Log, fromBlock, toBlock uint64,
) (map[uint64]*types.Header, error) {
	wanted := map[uint64]struct{}{toBlock: {}}
	for _, l := range logs {
		wanted[l.BlockNumber] = struct{}{}
	}
	for _, b := range lf.cfg.CallbackBlocks(fromBlock, toBlock) {
		wanted[b] = struct{}{}
	}

	blockNums := make([]uint64, 0, len(wanted))
	for b := range wanted {
		blockNums = append(blockNums, b)
	}
	slices.Sort(blockNums)

	fetched, err := lf.rpc.BatchGetBlockHeaders(ctx, blockNums)
	if err != nil {
		return nil, err
	}

	headers := make(map[uint64]*types.Header, len(fetched))
	for _, h := range fetched {
		if h == nil || h.Number == nil {
			continue
		}
		headers[h.Number.Uint64()] = h
	}
	if _, ok := headers[toBlock]; !ok {
		return nil, fmt.Errorf("header of block %d not returned", toBlock)
	}
	return headers, nil
}

// FetchNext fetches the next chunk of logs based on the current mode.
// For backfill mode, it fetches from the given block up to chunk_size.
// For live mode, it waits for the trusted head to pass lastIndexedBlock.
func (lf *LogFetcher) FetchNext(ctx context.Context, lastIndexedBlock uint64) (*fetcher.FetchResult, error) {
	switch lf.mode {
	case fetcher.ModeBackfill:
		return lf.fetchBackfill(ctx, lastIndexedBlock)
	case fetcher.ModeLive:
		return lf.fetchLive(ctx, lastIndexedBlock)
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s", lf.mode)
	}
}

func (lf *LogFetcher) fetchBackfill(ctx context.Context, lastIndexedBlock uint64) (*fetcher.FetchResult, error) {
	head, err := lf.trustedHead(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s block: %w", lf.cfg.Finality, err)
	}

	fromBlock := lastIndexedBlock + 1
	if fromBlock > head {
		lf.log.Info("backfill complete, switching to live mode")
		lf.mode = fetcher.ModeLive
		return lf.fetchLive(ctx, lastIndexedBlock)
	}

	return lf.FetchRange(ctx, fromBlock, min(fromBlock+lf.cfg.ChunkSize-1, head))
}

func (lf *LogFetcher) fetchLive(ctx context.Context, lastIndexedBlock uint64) (*fetcher.FetchResult, error) {
	fromBlock := lastIndexedBlock + 1

	for {
		head, err := lf.trustedHead(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s block: %w", lf.cfg.Finality, err)
		}

		if fromBlock <= head {
			// still chunked in case we fell behind
			return lf.FetchRange(ctx, fromBlock, min(fromBlock+lf.cfg.ChunkSize-1, head))
		}

		lf.log.Debugw("waiting for new blocks",
			"last_indexed", lastIndexedBlock,
			"head", head,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lf.cfg.PollInterval):
		}
	}
}

// trustedHead returns the number of the finalized or safe head.
func (lf *LogFetcher) trustedHead(ctx context.Context) (uint64, error) {
	var (
		header *types.Header
		err    error
	)

	switch lf.cfg.Finality {
	case itypes.FinalityFinalized:
		header, err = lf.rpc.GetFinalizedBlockHeader(ctx)
	case itypes.FinalitySafe:
		header, err = lf.rpc.GetSafeBlockHeader(ctx)
	default:
		return 0, fmt.Errorf("invalid finality mode: %s", lf.cfg.Finality)
	}
	if err != nil {
		return 0, err
	}

	head := header.Number.Uint64()
	metrics.HeadBlockSet(lf.cfg.ChainID, head)
	return head, nil
}

// fetchLogsWithRetry fetches logs and retries with a smaller range when the
// provider reports too many results. It returns the last block actually covered.
func (lf *LogFetcher) fetchLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, uint64, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: lf.addresses,
		Topics:    [][]common.Hash{lf.topics},
	}

	logs, err := lf.rpc.GetLogs(ctx, query)
	if err == nil {
		return logs, toBlock, nil
	}

	ok, errData := irpc.IsTooManyResultsError(err)
	if !ok {
		return nil, 0, err
	}

	newTo := fromBlock + (toBlock-fromBlock)/2 //nolint:mnd
	if suggestedFrom, suggestedTo, ok := irpc.ParseSuggestedBlockRange(errData); ok &&
		suggestedFrom == fromBlock && suggestedTo < toBlock {
		newTo = suggestedTo
	} else if newTo == toBlock {
		return nil, 0, fmt.Errorf("cannot split range further, single block %d has too many logs", fromBlock)
	}

	lf.log.Infow("too many logs, retrying with smaller block range",
		"from_block", fromBlock,
		"to_block", newTo,
		"original_to_block", toBlock,
	)

	return lf.fetchLogsWithRetry(ctx, fromBlock, newTo)
}
