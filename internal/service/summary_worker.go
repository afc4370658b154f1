package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SummaryQueue carries completed session IDs to the summary workers
type SummaryQueue interface {
	Enqueue(ctx context.Context, sessionID string) error
	// Dequeue waits up to timeout and returns "" when nothing arrived
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
}

// SummaryWorker drains the summary queue with a fixed pool of goroutines
type SummaryWorker struct {
	queue       SummaryQueue
	reports     *ReportService
	workers     int
	pollTimeout time.Duration
	retryDelay  time.Duration
}

// NewSummaryWorker creates a worker pool of the given size
func NewSummaryWorker(queue SummaryQueue, reports *ReportService, workers int) *SummaryWorker {
	if workers < 1 {
		workers = 1
	}
	return &SummaryWorker{
		queue:       queue,
		reports:     reports,
		workers:     workers,
		pollTimeout: 5 * time.Second,
		retryDelay:  time.Second,
	}
}

// Run blocks until ctx is cancelled and every worker has returned
func (w *SummaryWorker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (w *SummaryWorker) loop(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			return
		}

		sessionID, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("summary queue read failed", "worker", id, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.retryDelay):
			}
			continue
		}
		if sessionID == "" {
			continue
		}

		w.process(ctx, sessionID)
	}
}

// process never propagates failures; a missing summary only degrades the dashboard
func (w *SummaryWorker) process(ctx context.Context, sessionID string) {
	summary, created, err := w.reports.GenerateSummary(ctx, sessionID)
	if err != nil {
		slog.Error("summary generation failed", "session_id", sessionID, "error", err)
		return
	}
	if !created {
		slog.Debug("summary already exists", "session_id", sessionID, "summary_id", summary.ID)
	}
}
