package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// An Executor performs the actual fetch (and optional transcode) for one
// item, returning the output path on success. Failures should be classified
// as *DownloadError; anything else (including a panic) is recorded with
// KindInternal.
type Executor interface {
	Execute(ctx context.Context, item Item) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, item Item) (string, error)

func (f ExecutorFunc) Execute(ctx context.Context, item Item) (string, error) {
	return f(ctx, item)
}

// Config is the scheduler's knob surface, typically resolved from CLI flags
// and the config file before a batch starts.
type Config struct {
	// MaxConcurrent is the number of worker slots; values below 1 are
	// treated as 1.
	MaxConcurrent int
	Retry         Policy
	// RetryDelay is how long a slot waits between a failed attempt and its
	// authorized retry. Zero means retry immediately.
	RetryDelay time.Duration
}

// A Scheduler runs batches of items through an Executor with at most
// Config.MaxConcurrent invocations in flight at any instant.
type Scheduler struct {
	config   Config
	executor Executor
	observer Observer
	log      *zap.SugaredLogger
}

func NewScheduler(config Config, executor Executor, observer Observer) *Scheduler {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		observer: observer,
		log:      zap.S().Named("batch"),
	}
}

// Run executes all items and returns a Report covering every one of them,
// ordered by item ID. Items are dispatched to free slots in input order;
// completion order is unconstrained. A failure in one item never aborts the
// others. Cancelling ctx stops dispatch: undispatched items are reported
// StatusSkipped, in-flight attempts are allowed to finish and are recorded.
func (s *Scheduler) Run(ctx context.Context, items []Item) *Report {
	jobs := make(chan Item)
	results := make(chan ItemResult)

	var workers sync.WaitGroup
	for i := 0; i < s.config.MaxConcurrent; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for item := range jobs {
				results <- s.runItem(ctx, item)
			}
		}()
	}

	// Single feeder owns the pending queue, so slot accounting needs no
	// shared lock and nothing is held across an executor call.
	go func() {
		defer close(jobs)
		for i, item := range items {
			if ctx.Err() != nil {
				s.skipRemaining(items[i:], results)
				return
			}
			select {
			case jobs <- item:
			case <-ctx.Done():
				s.skipRemaining(items[i:], results)
				return
			}
		}
	}()

	byID := make(map[int]ItemResult, len(items))
	for range items {
		r := <-results
		byID[r.Item.ID] = r
	}
	workers.Wait()

	return newReport(items, byID)
}

func (s *Scheduler) skipRemaining(items []Item, results chan<- ItemResult) {
	s.log.Infow("cancelled, skipping remaining items", "count", len(items))
	for _, item := range items {
		results <- ItemResult{Item: item, Status: StatusSkipped}
	}
}

// runItem occupies one slot until the item is settled, re-running failed
// attempts in place while the retry policy allows.
func (s *Scheduler) runItem(ctx context.Context, item Item) ItemResult {
	result := ItemResult{Item: item}
	if ctx.Err() != nil {
		result.Status = StatusSkipped
		return result
	}
	for attempt := 1; ; attempt++ {
		s.notifyStarted(item, attempt)
		path, err := s.execute(ctx, item)
		outcome := AttemptOutcome{
			ItemID:    item.ID,
			Attempt:   attempt,
			Path:      path,
			Err:       err,
			Kind:      KindOf(err),
			Timestamp: time.Now(),
		}
		result.Attempts = append(result.Attempts, outcome)
		s.notifyFinished(outcome)

		if err == nil {
			result.Status = StatusSuccess
			s.log.Infow("item complete", "item", item.ID, "name", item.DisplayName, "path", path, "attempts", attempt)
			return result
		}
		s.log.Warnw("attempt failed", "item", item.ID, "name", item.DisplayName, "attempt", attempt, "kind", outcome.Kind, "error", err)

		if ctx.Err() != nil || !s.config.Retry.Allow(attempt) {
			result.Status = StatusFailed
			return result
		}
		if s.config.RetryDelay > 0 {
			select {
			case <-time.After(s.config.RetryDelay):
			case <-ctx.Done():
				result.Status = StatusFailed
				return result
			}
		}
	}
}

// execute invokes the executor with panic isolation: a panicking executor
// settles as a failed attempt on this item only.
func (s *Scheduler) execute(ctx context.Context, item Item) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("executor panicked", "item", item.ID, "panic", r)
			err = NewDownloadError(KindInternal, fmt.Errorf("executor panic: %v", r))
		}
	}()
	return s.executor.Execute(ctx, item)
}
