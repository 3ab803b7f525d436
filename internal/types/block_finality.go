package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// BlockFinality selects which head a chain follower trusts.
// Only reorg-free tags are accepted: events are applied exactly once and never reverted.
type BlockFinality string

const (
	// FinalityFinalized follows the finalized block tag.
	FinalityFinalized BlockFinality = "finalized"

	// FinalitySafe follows the safe block tag.
	FinalitySafe BlockFinality = "safe"
)

func (f BlockFinality) String() string {
	return string(f)
}

// IsValid checks if the BlockFinality value is valid.
func (f BlockFinality) IsValid() bool {
	switch f {
	case FinalityFinalized, FinalitySafe:
		return true
	default:
		return false
	}
}

// BlockNumber returns the JSON-RPC block tag for the finality mode.
func (f BlockFinality) BlockNumber() rpc.BlockNumber {
	if f == FinalitySafe {
		return rpc.SafeBlockNumber
	}
	return rpc.FinalizedBlockNumber
}

// ParseBlockFinality parses a string into a BlockFinality type.
func ParseBlockFinality(s string) (BlockFinality, error) {
	f := BlockFinality(s)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid block finality: %s (must be one of: finalized, safe)", s)
	}
	return f, nil
}
