package model

// KindIndexerCursor is the table of per-chain progress markers.
const KindIndexerCursor = "IndexerCursor"

// IndexerCursor is the last step the indexer applied on a chain. A step is
// either a log or the block callback, which runs after every log of its
// block. The cursor is written in the same transaction as the step.
type IndexerCursor struct {
	Key
	Block    uint64 `json:"block"`
	LogIndex uint   `json:"logIndex"`
	Callback bool   `json:"callback"`
}

// Covers reports whether the step at (block, logIndex, callback) is at or
// before the cursor. logIndex is ignored for callbacks.
func (c IndexerCursor) Covers(block uint64, logIndex uint, callback bool) bool {
	switch {
	case block != c.Block:
		return block < c.Block
	case c.Callback:
		return true
	case callback:
		return false
	default:
		return logIndex <= c.LogIndex
	}
}
