package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/russross/meddler"

	"github.com/goran-ethernal/DepositIndexor/internal/db"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/internal/store/migrations"
)

type sqlTxKey struct{}

// entityRow maps the entities table.
type entityRow struct {
	Kind      string `meddler:"kind"`
	ID        string `meddler:"id"`
	ChainID   uint64 `meddler:"chain_id"`
	Data      string `meddler:"data"`
	UpdatedAt int64  `meddler:"updated_at"`
}

const upsertEntitySQL = `
INSERT INTO entities (kind, id, chain_id, data, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (kind, id) DO UPDATE SET
	chain_id   = excluded.chain_id,
	data       = excluded.data,
	updated_at = excluded.updated_at`

// SQLiteBackend stores entity documents in a single SQLite table.
//
// Write transactions are serialized in process. A transaction stays open
// while its handlers read contracts, so chains sharing one database take
// turns and wait on ctx instead of on the SQLite busy timeout.
type SQLiteBackend struct {
	db     *sql.DB
	log    *logger.Logger
	writer chan struct{}
}

// NewSQLiteBackend runs the entity migrations on database and wraps it.
func NewSQLiteBackend(database *sql.DB, log *logger.Logger) (*SQLiteBackend, error) {
	if err := migrations.RunMigrationsDB(log, database); err != nil {
		return nil, fmt.Errorf("failed to migrate entity store: %w", err)
	}
	return &SQLiteBackend{db: database, log: log, writer: make(chan struct{}, 1)}, nil
}

// DB returns the underlying connection.
func (s *SQLiteBackend) DB() *sql.DB {
	return s.db
}

func (s *SQLiteBackend) querier(ctx context.Context) meddler.DB {
	if tx, ok := ctx.Value(sqlTxKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *SQLiteBackend) Load(ctx context.Context, kind, id string) ([]byte, bool, error) {
	var row entityRow
	err := meddler.QueryRow(s.querier(ctx), &row, "SELECT * FROM entities WHERE kind = ? AND id = ?", kind, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(row.Data), true, nil
}

func (s *SQLiteBackend) Save(ctx context.Context, row Row) error {
	_, err := s.querier(ctx).Exec(upsertEntitySQL, row.Kind, row.ID, row.ChainID, string(row.Data), time.Now().Unix())
	return err
}

// FindBy filters on json_extract(data, '$.<field>'). The path is inlined so
// SQLite can use the expression indexes declared in the migrations.
func (s *SQLiteBackend) FindBy(ctx context.Context, kind, field string, value any) ([][]byte, error) {
	if !ValidField(field) {
		return nil, fmt.Errorf("invalid field name %q", field)
	}

	query := fmt.Sprintf(
		"SELECT * FROM entities WHERE kind = ? AND json_extract(data, '$.%s') = ? ORDER BY id", field,
	)

	var rows []*entityRow
	if err := meddler.QueryAll(s.querier(ctx), &rows, query, kind, value); err != nil {
		return nil, err
	}
	return rowData(rows), nil
}

func (s *SQLiteBackend) List(ctx context.Context, kind string, limit, offset int) ([][]byte, error) {
	if limit <= 0 {
		limit = -1
	}

	var rows []*entityRow
	err := meddler.QueryAll(s.querier(ctx), &rows,
		"SELECT * FROM entities WHERE kind = ? ORDER BY id LIMIT ? OFFSET ?", kind, limit, offset)
	if err != nil {
		return nil, err
	}
	return rowData(rows), nil
}

func rowData(rows []*entityRow) [][]byte {
	out := make([][]byte, 0, len(rows))
	for _, r := range rows {
		out = append(out, []byte(r.Data))
	}
	return out
}

// Tx runs fn in a database transaction. Nested calls join the outer one.
// It blocks until no other transaction of s is open or ctx is done.
func (s *SQLiteBackend) Tx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(sqlTxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.writer }()

	defer func() { storeTxInc(err) }()

	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(context.WithValue(ctx, sqlTxKey{}, tx))
	})
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
