package engine

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestGuardSingleFlight(t *testing.T) {
	g := NewGuard()

	var wins, rejections atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if err := g.Begin(); err == nil {
				wins.Add(1)
			} else if IsAlreadyGenerating(err) {
				rejections.Add(1)
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one admission, got %d", wins.Load())
	}
	if rejections.Load() != 31 {
		t.Fatalf("expected 31 rejections, got %d", rejections.Load())
	}
}

func TestGuardEndReleases(t *testing.T) {
	g := NewGuard()
	if err := g.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !g.Busy() {
		t.Fatal("guard should be busy after Begin")
	}
	g.End()
	if g.Busy() {
		t.Fatal("guard should be idle after End")
	}
	if err := g.Begin(); err != nil {
		t.Fatalf("begin after end: %v", err)
	}
}

func TestGuardEndIdempotent(t *testing.T) {
	g := NewGuard()
	g.End()
	g.End()
	if err := g.Begin(); err != nil {
		t.Fatalf("begin after spurious ends: %v", err)
	}
}

func TestGuardCancelOnlyWhenBusy(t *testing.T) {
	g := NewGuard()
	if g.Cancel() {
		t.Fatal("cancel on idle guard must report no running generation")
	}
	if g.Cancelled() {
		t.Fatal("idle cancel must not set the flag")
	}
	if err := g.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !g.Cancel() {
		t.Fatal("cancel on busy guard must report true")
	}
	if !g.Cancelled() {
		t.Fatal("cancel flag must be set while busy")
	}
}

func TestGuardBeginResetsCancelFlag(t *testing.T) {
	g := NewGuard()
	if err := g.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	g.Cancel()
	g.End()
	if err := g.Begin(); err != nil {
		t.Fatalf("second begin: %v", err)
	}
	if g.Cancelled() {
		t.Fatal("a stale cancel must not leak into the next session")
	}
}
