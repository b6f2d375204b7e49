// Package memstore provides an in-memory implementation of analysis.Store
// with bounded entry lifetime.
//
// Entries expire after a configurable TTL so tasks do not accumulate for the
// whole process lifetime; a get after expiry is simply not-found.
package memstore

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/earshotlabs/earshot/internal/analysis"
)

// DefaultTTL is how long a task remains queryable after its last write.
const DefaultTTL = 24 * time.Hour

// Store holds analysis tasks in an expiring in-memory cache.
type Store struct {
	tasks *cache.Cache
}

// New initializes a Store. ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		tasks: cache.New(ttl, ttl*2),
	}
}

// Get retrieves a task by ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*analysis.Task, bool, error) {
	v, ok := s.tasks.Get(id)
	if !ok {
		return nil, false, nil
	}
	cp := *(v.(*analysis.Task))
	return &cp, true, nil
}

// Put stores a copy of the task, resetting its TTL.
func (s *Store) Put(_ context.Context, t *analysis.Task) error {
	cp := *t
	s.tasks.Set(t.ID, &cp, cache.DefaultExpiration)
	return nil
}
