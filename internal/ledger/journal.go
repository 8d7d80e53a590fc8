package ledger

import (
	"context"
	"sync"
)

type memoryJournal struct {
	mu      sync.RWMutex
	entries []Transaction
	refs    map[string]struct{}
}

// NewMemoryJournal creates an in-memory append-only transaction journal.
func NewMemoryJournal() Journal {
	return &memoryJournal{refs: make(map[string]struct{})}
}

func (j *memoryJournal) Append(_ context.Context, tx Transaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, exists := j.refs[tx.Reference]; exists {
		return ErrDuplicateReference
	}
	j.refs[tx.Reference] = struct{}{}
	j.entries = append(j.entries, tx)
	return nil
}

func (j *memoryJournal) List(_ context.Context, accountKey string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	j.mu.RLock()
	defer j.mu.RUnlock()

	// Appends are chronological, so walking backwards yields entries in
	// descending date order.
	out := make([]Transaction, 0, limit)
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		tx := j.entries[i]
		if tx.Source == accountKey || tx.Destination == accountKey {
			out = append(out, tx)
		}
	}
	return out, nil
}
