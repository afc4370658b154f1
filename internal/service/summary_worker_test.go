package service

import (
	"context"
	"testing"
	"time"
)

func TestSummaryWorkerDrainsQueue(t *testing.T) {
	h := newHarness(t, "Q1")
	first := completedSession(t, h)
	second := completedSession(t, h)

	// a duplicate job must not produce a second summary
	if err := h.queue.Enqueue(context.Background(), first); err != nil {
		t.Fatal(err)
	}

	w := NewSummaryWorker(h.queue, h.reports, 2)
	w.pollTimeout = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for h.summaries.Count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// let the duplicate job settle
	time.Sleep(50 * time.Millisecond)
	cancel()
	waitAll(t, done, 2*time.Second)

	if h.summaries.Count() != 2 {
		t.Fatalf("stored %d summaries, want 2", h.summaries.Count())
	}
	for _, id := range []string{first, second} {
		if s, _ := h.summaries.GetBySession(context.Background(), id); s == nil {
			t.Errorf("no summary for %s", id)
		}
	}
}

func TestNewSummaryWorkerMinimumPool(t *testing.T) {
	if w := NewSummaryWorker(nil, nil, 0); w.workers != 1 {
		t.Errorf("workers = %d, want 1", w.workers)
	}
}
