package lock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"alcyxob/plan-engine/internal/domain"
)

func TestLocalGuardRejectsSecondHolder(t *testing.T) {
	g := NewLocal()
	ctx := context.Background()

	release, err := g.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := g.Acquire(ctx, "u1"); !errors.Is(err, domain.ErrPersistenceConflict) {
		t.Fatalf("second acquire: want ErrPersistenceConflict got %v", err)
	}
	other, err := g.Acquire(ctx, "u2")
	if err != nil {
		t.Fatalf("other user must not be blocked: %v", err)
	}
	other()

	release()
	release()
	again, err := g.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestLocalGuardSingleWinner(t *testing.T) {
	g := NewLocal()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Acquire(context.Background(), "same"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if winners != 1 {
		t.Fatalf("winners: want=1 got=%d", winners)
	}
}

func TestLocalGuardHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal().Acquire(ctx, "u1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
