package store

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/internal/db"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
)

func newSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "entities.db")}
	cfg.ApplyDefaults()

	sqlDB, err := db.NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)

	sqlite, err := NewSQLiteBackend(sqlDB, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return sqlite
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"sqlite": newSQLiteBackend(t),
	}
}

func period(id, auctioneer string, months uint8) model.AuctioneerDepositPeriod {
	return model.AuctioneerDepositPeriod{
		Key:          model.Key{ID: id, ChainID: 11155111},
		AuctioneerID: auctioneer,
		PeriodMonths: months,
		TickPrice:    model.NewAmount(big.NewInt(1_500_000), 6),
	}
}

func TestStore_GetSet(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tables := NewTables(backend)

			_, ok, err := tables.AuctioneerDepositPeriods.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			p := period("1_a_x_3", "1_a", 3)
			require.NoError(t, tables.AuctioneerDepositPeriods.Set(ctx, p))

			got, ok, err := tables.AuctioneerDepositPeriods.Get(ctx, p.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, p.AuctioneerID, got.AuctioneerID)
			assert.True(t, p.TickPrice.Decimal.Equal(got.TickPrice.Decimal))
			assert.Equal(t, 0, p.TickPrice.Raw.Cmp(got.TickPrice.Raw))

			p.Enabled = true
			require.NoError(t, tables.AuctioneerDepositPeriods.Set(ctx, p))
			got, err = tables.AuctioneerDepositPeriods.MustGet(ctx, p.ID)
			require.NoError(t, err)
			assert.True(t, got.Enabled, "set must replace by id")
		})
	}
}

func TestStore_MustGetNotFound(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := NewTables(backend).Redemptions.MustGet(context.Background(), "1_0xabc_1")
			require.Error(t, err)
			assert.True(t, IsNotFound(err))

			var nf *NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, model.KindRedemption, nf.Entity)
			assert.Equal(t, "1_0xabc_1", nf.ID)
		})
	}
}

func TestStore_GetWhere(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := NewTables(backend).AuctioneerDepositPeriods

			require.NoError(t, s.Set(ctx, period("1_a_x_6", "1_a", 6)))
			require.NoError(t, s.Set(ctx, period("1_a_x_3", "1_a", 3)))
			require.NoError(t, s.Set(ctx, period("1_b_x_3", "1_b", 3)))

			got, err := s.GetWhere(ctx, "auctioneerId", "1_a")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "1_a_x_3", got[0].ID, "results are ordered by id")
			assert.Equal(t, "1_a_x_6", got[1].ID)

			got, err = s.GetWhere(ctx, "chainId", uint64(11155111))
			require.NoError(t, err)
			assert.Len(t, got, 3)

			_, err = s.GetWhere(ctx, "x') OR 1=1 --", "1")
			require.Error(t, err)
		})
	}
}

func TestStore_TxRollback(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tables := NewTables(backend)
			boom := errors.New("handler failed")

			err := tables.Tx(ctx, func(ctx context.Context) error {
				require.NoError(t, tables.Depositors.Set(ctx, model.Depositor{Key: model.Key{ID: "1_0xd", ChainID: 1}}))

				_, ok, err := tables.Depositors.Get(ctx, "1_0xd")
				require.NoError(t, err)
				assert.True(t, ok, "writes are visible inside the transaction")
				return boom
			})
			require.ErrorIs(t, err, boom)

			_, ok, err := tables.Depositors.Get(ctx, "1_0xd")
			require.NoError(t, err)
			assert.False(t, ok, "no partial commit")

			require.NoError(t, tables.Tx(ctx, func(ctx context.Context) error {
				return tables.Depositors.Set(ctx, model.Depositor{Key: model.Key{ID: "1_0xd", ChainID: 1}})
			}))
			_, ok, err = tables.Depositors.Get(ctx, "1_0xd")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestSQLiteBackend_TxSerializesWriters(t *testing.T) {
	backend := newSQLiteBackend(t)
	tables := NewTables(backend)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- tables.Tx(context.Background(), func(ctx context.Context) error {
			close(entered)
			<-release
			return tables.Depositors.Set(ctx, model.Depositor{Key: model.Key{ID: "1_0xa", ChainID: 1}})
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	called := false
	err := tables.Tx(ctx, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)

	close(release)
	require.NoError(t, <-done)

	require.NoError(t, tables.Tx(context.Background(), func(ctx context.Context) error {
		return tables.Depositors.Set(ctx, model.Depositor{Key: model.Key{ID: "1_0xb", ChainID: 1}})
	}))
	for _, id := range []string{"1_0xa", "1_0xb"} {
		_, ok, err := tables.Depositors.Get(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, ok, id)
	}
}

func TestStore_RecordAndList(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tables := NewTables(backend)

			for _, id := range []string{"1_10_0", "1_10_1", "1_11_0"} {
				rec := model.ToggleEvent{
					EventMeta:  model.EventMeta{Key: model.Key{ID: id, ChainID: 1}, Block: 10},
					ContractID: "1_0xa",
				}
				require.NoError(t, tables.Record(ctx, model.KindAuctioneerEnabled, rec))
			}

			docs, err := backend.List(ctx, model.KindAuctioneerEnabled, 2, 1)
			require.NoError(t, err)
			require.Len(t, docs, 2)
			assert.Contains(t, string(docs[0]), `"id":"1_10_1"`)

			docs, err = backend.List(ctx, model.KindAuctioneerEnabled, 0, 0)
			require.NoError(t, err)
			assert.Len(t, docs, 3)
		})
	}
}
