package service

import (
	"context"
	"sync"
)

// StoreTx runs the per-request unit of work atomically. The SQL
// implementation lives in the store package; the in-process one below backs
// the in-memory store.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// inProcessTx serializes units of work with a mutex. The in-memory store has
// no multi-statement atomicity, so serializing whole requests is what gives
// it the same read-decide-write guarantee the Postgres transaction provides.
type inProcessTx struct {
	mu sync.Mutex
}

func newInProcessTx() *inProcessTx {
	return &inProcessTx{}
}

func (t *inProcessTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
