package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// blockingRunner holds every run open until release is closed.
type blockingRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func (r *blockingRunner) Run(_ context.Context) (*Report, error) {
	r.calls.Add(1)
	r.started <- struct{}{}
	<-r.release
	if r.err != nil {
		return nil, r.err
	}
	return &Report{RunID: "run-1"}, nil
}

func TestGuard_CollapsesOverlappingRuns(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}, 1), release: make(chan struct{})}
	g := NewGuard(runner)

	type result struct {
		report *Report
		shared bool
		err    error
	}
	results := make(chan result, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		rep, shared, err := g.Run(context.Background())
		results <- result{rep, shared, err}
	}()
	<-runner.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		rep, shared, err := g.Run(context.Background())
		results <- result{rep, shared, err}
	}()

	// Give the second caller time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(runner.release)
	wg.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if r.report.RunID != "run-1" {
			t.Errorf("expected shared report run-1, got %s", r.report.RunID)
		}
		if !r.shared {
			t.Error("expected both callers to see a shared result")
		}
	}
	if runner.calls.Load() != 1 {
		t.Errorf("expected 1 underlying run, got %d", runner.calls.Load())
	}
}

func TestGuard_SequentialRunsAreIndependent(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}, 2), release: make(chan struct{})}
	close(runner.release)
	g := NewGuard(runner)

	for i := 0; i < 2; i++ {
		_, shared, err := g.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		if shared {
			t.Errorf("run %d should not be shared", i)
		}
	}
	if runner.calls.Load() != 2 {
		t.Errorf("expected 2 underlying runs, got %d", runner.calls.Load())
	}
}

func TestGuard_PropagatesError(t *testing.T) {
	boom := errors.New("store unreachable")
	runner := &blockingRunner{started: make(chan struct{}, 1), release: make(chan struct{}), err: boom}
	close(runner.release)
	g := NewGuard(runner)

	report, _, err := g.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if report != nil {
		t.Error("expected nil report on failure")
	}
}
