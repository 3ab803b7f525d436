package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
)

type memTxKey struct{}

// memTx buffers writes until commit.
type memTx struct {
	writes map[string]map[string]Row
}

// MemoryBackend keeps all rows in process memory. It is used by tests and by
// runs configured with an in-memory database.
type MemoryBackend struct {
	mu   sync.RWMutex
	rows map[string]map[string]Row
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{rows: make(map[string]map[string]Row)}
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

func (m *MemoryBackend) Load(ctx context.Context, kind, id string) ([]byte, bool, error) {
	if tx := txFrom(ctx); tx != nil {
		if row, ok := tx.writes[kind][id]; ok {
			return row.Data, true, nil
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[kind][id]
	if !ok {
		return nil, false, nil
	}
	return row.Data, true, nil
}

func (m *MemoryBackend) Save(ctx context.Context, row Row) error {
	row.Data = bytes.Clone(row.Data)

	if tx := txFrom(ctx); tx != nil {
		put(tx.writes, row)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	put(m.rows, row)
	return nil
}

func put(dst map[string]map[string]Row, row Row) {
	byID, ok := dst[row.Kind]
	if !ok {
		byID = make(map[string]Row)
		dst[row.Kind] = byID
	}
	byID[row.ID] = row
}

// merged returns the committed rows of kind overlaid with the transaction's writes.
func (m *MemoryBackend) merged(ctx context.Context, kind string) map[string]Row {
	m.mu.RLock()
	out := maps.Clone(m.rows[kind])
	m.mu.RUnlock()

	if out == nil {
		out = make(map[string]Row)
	}
	if tx := txFrom(ctx); tx != nil {
		maps.Copy(out, tx.writes[kind])
	}
	return out
}

func (m *MemoryBackend) FindBy(ctx context.Context, kind, field string, value any) ([][]byte, error) {
	rows := m.merged(ctx, kind)
	want := fmt.Sprint(value)

	var out [][]byte
	for _, id := range slices.Sorted(maps.Keys(rows)) {
		data := rows[id].Data

		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s %q: %w", kind, id, err)
		}

		if v, ok := doc[field]; ok && fmt.Sprint(v) == want {
			out = append(out, data)
		}
	}
	return out, nil
}

func (m *MemoryBackend) List(ctx context.Context, kind string, limit, offset int) ([][]byte, error) {
	rows := m.merged(ctx, kind)
	ids := slices.Sorted(maps.Keys(rows))

	if offset >= len(ids) {
		return [][]byte{}, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, rows[id].Data)
	}
	return out, nil
}

// Tx buffers every write made through ctx and applies them atomically when fn
// succeeds. Nested calls join the outer transaction.
func (m *MemoryBackend) Tx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	defer func() { storeTxInc(err) }()

	tx := &memTx{writes: make(map[string]map[string]Row)}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, byID := range tx.writes {
		for _, row := range byID {
			put(m.rows, row)
		}
	}
	return nil
}

// Count returns the number of committed rows of kind.
func (m *MemoryBackend) Count(kind string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows[kind])
}

func (m *MemoryBackend) Close() error { return nil }
