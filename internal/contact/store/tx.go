package store

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "contactlink/pkg/platform/tx"
)

// SQLTx runs a function inside a database transaction, exposing it to stores
// through the context. One identify request equals one transaction; commit
// only happens when the whole read-decide-write sequence succeeded.
type SQLTx struct {
	db *sql.DB
}

// NewSQLTx constructs a transaction runner over db.
func NewSQLTx(db *sql.DB) *SQLTx {
	return &SQLTx{db: db}
}

// RunInTx begins a transaction, injects it into ctx, and commits when fn
// returns nil. Any error rolls back; conflict mapping happens at the store
// level, so callers just see sentinel.ErrConflict bubble up.
func (t *SQLTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err, "commit tx")
	}
	return nil
}
