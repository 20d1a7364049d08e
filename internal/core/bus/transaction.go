package bus

import (
	"context"
	"sync"
)

// pendingEntry is one buffered outbound action: publish or sendLocal,
// carrying a deferred builder closure that is not invoked until commit.
type pendingEntry struct {
	mode         string
	declaredType string
	build        func() (any, error)
}

const (
	modePublish   = "publish"
	modeSendLocal = "sendLocal"
)

type txKey struct{}

// transaction is the per-transaction outbound buffer. It is owned by the
// goroutine that began it and is not shared across transactions.
type transaction struct {
	mu      sync.Mutex
	entries []pendingEntry
}

func txFrom(ctx context.Context) *transaction {
	tx, _ := ctx.Value(txKey{}).(*transaction)
	return tx
}

func (t *transaction) append(e pendingEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
}

func (t *transaction) drain() []pendingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.entries
	t.entries = nil
	return entries
}
