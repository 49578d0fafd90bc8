package duckdb

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTransaction stashes a transaction in the context so stores that write
// inside one (run persistence during a validation) join it transparently.
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTransaction returns the ambient transaction, or nil when the caller did
// not open one.
func GetTransaction(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}
