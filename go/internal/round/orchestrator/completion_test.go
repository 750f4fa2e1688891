package orchestrator

import (
	"sync"
	"testing"
)

func TestCompletionGuardAtMostOnce(t *testing.T) {
	g := NewCompletionGuard()

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire(42) {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 1 {
		t.Fatalf("acquired = %d, want 1", acquired)
	}
	if !g.Holds(42) {
		t.Fatalf("guard does not hold round 42")
	}
}

func TestCompletionGuardRollback(t *testing.T) {
	g := NewCompletionGuard()
	if !g.TryAcquire(1) {
		t.Fatalf("first acquire failed")
	}

	if g.Rollback(2) {
		t.Errorf("rollback of a different round succeeded")
	}
	if !g.Rollback(1) {
		t.Fatalf("rollback of held round failed")
	}

	if g.lock.Completed || g.lock.RoundID != nil {
		t.Fatalf("lock after rollback = %+v, want zero", g.lock)
	}
	if !g.TryAcquire(1) {
		t.Fatalf("acquire after rollback failed")
	}
}

func TestCompletionGuardNewRoundAfterCompleted(t *testing.T) {
	g := NewCompletionGuard()
	g.TryAcquire(1)

	if !g.TryAcquire(2) {
		t.Fatalf("acquire of a different round id failed")
	}
	if g.Holds(1) {
		t.Errorf("guard still holds round 1")
	}

	g.Reset()
	if g.Holds(2) {
		t.Errorf("guard holds round 2 after reset")
	}
}

func TestCompleteResultString(t *testing.T) {
	tests := map[CompleteResult]string{
		CompleteNoRound:    "no_round",
		CompleteDuplicate:  "duplicate",
		CompleteStarted:    "started",
		CompleteResult(99): "unknown",
	}
	for r, want := range tests {
		if got := r.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(r), got, want)
		}
	}
}
