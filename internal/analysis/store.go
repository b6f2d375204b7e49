package analysis

import "context"

// Store is the persistence interface for analysis tasks. Implementations must
// make insert and lookup safe under concurrent submits; individual entries
// are single-writer by construction.
type Store interface {
	Get(ctx context.Context, id string) (*Task, bool, error)
	Put(ctx context.Context, task *Task) error
}
