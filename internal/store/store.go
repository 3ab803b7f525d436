// Package store persists the entity graph. Entities are encoded as JSON
// documents keyed by (kind, id) so a single generic Store[T] serves every
// entity type, with secondary lookups on indexed JSON fields.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

// Row is a single persisted entity.
type Row struct {
	Kind    string
	ID      string
	ChainID uint64
	Data    []byte
}

// Backend is the untyped persistence engine behind every Store.
// A context returned inside Tx routes reads and writes to that transaction.
type Backend interface {
	Load(ctx context.Context, kind, id string) ([]byte, bool, error)
	Save(ctx context.Context, row Row) error
	FindBy(ctx context.Context, kind, field string, value any) ([][]byte, error)
	List(ctx context.Context, kind string, limit, offset int) ([][]byte, error)
	Tx(ctx context.Context, fn func(ctx context.Context) error) error
	Close() error
}

// Store is a typed view over one entity kind.
type Store[T model.Entity] interface {
	// Get returns the entity and true, or the zero value and false when absent.
	Get(ctx context.Context, id string) (T, bool, error)
	// MustGet returns a *NotFoundError when the entity is absent.
	MustGet(ctx context.Context, id string) (T, error)
	// Set replaces the entity stored under its id.
	Set(ctx context.Context, entity T) error
	// GetWhere returns all entities whose JSON field equals value, ordered by id.
	GetWhere(ctx context.Context, field string, value any) ([]T, error)
	// Kind returns the table name.
	Kind() string
}

// NotFoundError is returned when an entity that must exist is missing.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// ValidField reports whether field may be used in GetWhere.
func ValidField(field string) bool {
	return fieldPattern.MatchString(field)
}

type table[T model.Entity] struct {
	kind    string
	backend Backend
}

// NewStore returns a Store for kind on backend.
func NewStore[T model.Entity](backend Backend, kind string) Store[T] {
	return &table[T]{kind: kind, backend: backend}
}

func (t *table[T]) Kind() string { return t.kind }

func (t *table[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T

	data, ok, err := t.backend.Load(ctx, t.kind, id)
	if err != nil {
		return zero, false, fmt.Errorf("failed to load %s %q: %w", t.kind, id, err)
	}
	if !ok {
		return zero, false, nil
	}

	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return zero, false, fmt.Errorf("failed to decode %s %q: %w", t.kind, id, err)
	}
	return entity, true, nil
}

func (t *table[T]) MustGet(ctx context.Context, id string) (T, error) {
	entity, ok, err := t.Get(ctx, id)
	if err != nil {
		return entity, err
	}
	if !ok {
		return entity, &NotFoundError{Entity: t.kind, ID: id}
	}
	return entity, nil
}

func (t *table[T]) Set(ctx context.Context, entity T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode %s %q: %w", t.kind, entity.EntityID(), err)
	}

	row := Row{Kind: t.kind, ID: entity.EntityID(), ChainID: entity.EntityChainID(), Data: data}
	if err := t.backend.Save(ctx, row); err != nil {
		return fmt.Errorf("failed to save %s %q: %w", t.kind, row.ID, err)
	}

	storeWritesInc(t.kind)
	return nil
}

func (t *table[T]) GetWhere(ctx context.Context, field string, value any) ([]T, error) {
	if !ValidField(field) {
		return nil, fmt.Errorf("invalid field name %q", field)
	}

	docs, err := t.backend.FindBy(ctx, t.kind, field, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", t.kind, field, err)
	}

	return decodeAll[T](t.kind, docs)
}

func decodeAll[T any](kind string, docs [][]byte) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var entity T
		if err := json.Unmarshal(doc, &entity); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		out = append(out, entity)
	}
	return out, nil
}
