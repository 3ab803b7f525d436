// Package entities resolves current-state entities by derived id, creating
// them from contract reads the first time they are referenced. Parents are
// always resolved before children. An existing entity is returned untouched.
package entities

import (
	"context"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/internal/store"
)

// Resolver holds the entity tables and the contract fetcher.
type Resolver struct {
	tables  *store.Tables
	fetcher *contracts.Fetcher
}

// NewResolver creates a Resolver over tables that reads contracts through fetcher.
func NewResolver(tables *store.Tables, fetcher *contracts.Fetcher) *Resolver {
	return &Resolver{tables: tables, fetcher: fetcher}
}

func (r *Resolver) Tables() *store.Tables {
	return r.tables
}

func (r *Resolver) Fetcher() *contracts.Fetcher {
	return r.fetcher
}

// Update persists a copy of old with fn applied. old itself is not modified.
func Update[T model.Entity](ctx context.Context, s store.Store[T], old T, fn func(*T)) (T, error) {
	next := old
	fn(&next)
	if err := s.Set(ctx, next); err != nil {
		var zero T
		return zero, err
	}
	return next, nil
}

// getOrCreate returns the entity under id, or persists the result of create.
func getOrCreate[T model.Entity](
	ctx context.Context, s store.Store[T], id string, create func() (T, error),
) (T, error) {
	existing, ok, err := s.Get(ctx, id)
	if err != nil || ok {
		return existing, err
	}

	created, err := create()
	if err != nil {
		var zero T
		return zero, err
	}
	if err := s.Set(ctx, created); err != nil {
		var zero T
		return zero, err
	}
	return created, nil
}
