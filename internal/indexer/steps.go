package indexer

import (
	"cmp"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// step is one unit of work: a log, or the block callback of a block.
type step struct {
	block    uint64
	log      *types.Log
	callback bool
}

func (s step) logIndex() uint {
	if s.log == nil {
		return 0
	}
	return s.log.Index
}

// filterLogs drops removed logs and logs a contract emitted before its
// configured start block.
func filterLogs(logs []types.Log, startBlocks map[common.Address]uint64) []types.Log {
	filtered := make([]types.Log, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		if start, ok := startBlocks[log.Address]; ok && log.BlockNumber < start {
			continue
		}
		filtered = append(filtered, log)
	}
	return filtered
}

// sortLogs orders logs by (block, log index).
func sortLogs(logs []types.Log) {
	slices.SortStableFunc(logs, func(a, b types.Log) int {
		if c := cmp.Compare(a.BlockNumber, b.BlockNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
}

// schedule merges ordered logs and ascending callback blocks. The callback
// of block b comes after every log of blocks <= b.
func schedule(logs []types.Log, callbacks []uint64) []step {
	steps := make([]step, 0, len(logs)+len(callbacks))

	i := 0
	for _, block := range callbacks {
		for ; i < len(logs) && logs[i].BlockNumber <= block; i++ {
			steps = append(steps, step{block: logs[i].BlockNumber, log: &logs[i]})
		}
		steps = append(steps, step{block: block, callback: true})
	}
	for ; i < len(logs); i++ {
		steps = append(steps, step{block: logs[i].BlockNumber, log: &logs[i]})
	}

	return steps
}
