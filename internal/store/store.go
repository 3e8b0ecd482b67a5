// Package store persists small per-visitor key-value records
// (session flags, premium flag) that must survive reloads.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under a key.
var ErrNotFound = errors.New("store: not found")

// Store is a per-owner key-value store. Owner is the visitor id.
type Store interface {
	// Get returns the stored value, or ErrNotFound.
	Get(ctx context.Context, owner, key string) (string, error)
	Put(ctx context.Context, owner, key, value string) error
	Delete(ctx context.Context, owner, key string) error
	Close() error
}

// Open returns a Postgres store when databaseURL is set, otherwise the
// local SQLite store under $HOME/.go_streamx.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL != "" {
		pg, err := ConnectPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	lite, err := OpenSQLite()
	if err != nil {
		return nil, err
	}
	return lite, nil
}
