package model

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/ids"
)

// Origin locates the log or block callback that caused a write.
type Origin struct {
	ChainID   uint64         `json:"chainId"`
	Block     uint64         `json:"block"`
	Timestamp uint64         `json:"timestamp"`
	LogIndex  uint           `json:"logIndex"`
	TxHash    common.Hash    `json:"txHash"`
	Address   common.Address `json:"address"`
}

// EventMeta returns the history-record header for the event at o.
func (o Origin) EventMeta() EventMeta {
	return EventMeta{
		Key:       Key{ID: ids.BlockEvent(o.ChainID, o.Block, o.LogIndex), ChainID: o.ChainID},
		TxHash:    ids.Build(o.TxHash),
		Block:     o.Block,
		LogIndex:  o.LogIndex,
		Timestamp: o.Timestamp,
		Contract:  ids.Addr(o.Address),
	}
}

// ChildMeta returns the header of a per-item record derived from the event at o.
func (o Origin) ChildMeta(sub any) EventMeta {
	meta := o.EventMeta()
	meta.ID = ids.BlockEventChild(o.ChainID, o.Block, o.LogIndex, sub)
	return meta
}
