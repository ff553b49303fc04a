// Package lock provides the per-user in-flight guard. At most one modification
// per user runs at a time; a second attempt fails fast instead of waiting.
package lock

import (
	"context"
	"sync"

	"alcyxob/plan-engine/internal/domain"
)

// Guard hands out exclusive per-user leases.
type Guard interface {
	// Acquire takes the lease for userID or returns domain.ErrPersistenceConflict
	// when it is already held. release is safe to call more than once.
	Acquire(ctx context.Context, userID string) (release func(), err error)
}

type localGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal returns a Guard for a single process.
func NewLocal() Guard {
	return &localGuard{held: make(map[string]struct{})}
}

func (g *localGuard) Acquire(ctx context.Context, userID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[userID]; busy {
		return nil, domain.ErrPersistenceConflict
	}
	g.held[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, userID)
			g.mu.Unlock()
		})
	}, nil
}
