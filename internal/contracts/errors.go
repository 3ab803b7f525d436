package contracts

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ContractReadError wraps any failed contract read. Reads are never defaulted.
type ContractReadError struct {
	Effect  string
	ChainID uint64
	Address common.Address
	Err     error
}

func (e *ContractReadError) Error() string {
	return fmt.Sprintf("contract read %s on chain %d at %s failed: %v", e.Effect, e.ChainID, e.Address.Hex(), e.Err)
}

func (e *ContractReadError) Unwrap() error {
	return e.Err
}
