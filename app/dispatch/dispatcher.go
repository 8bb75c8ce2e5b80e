package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"postline/app/schedule"
)

// ErrCycleInProgress reports an attempt to start a cycle while another is
// still running against the same store.
var ErrCycleInProgress = errors.New("dispatch cycle already in progress")

// Dispatcher runs the scan-and-publish algorithm: pull due posts, attempt
// delivery, apply the status rules and retry policy, persist the outcome.
type Dispatcher struct {
	store          schedule.Store
	publisher      schedule.PublishClient
	policy         schedule.RetryPolicy
	clock          schedule.Clock
	workerCount    int
	batchLimit     int
	publishTimeout time.Duration

	cycleMu sync.Mutex
}

type Options struct {
	WorkerCount    int
	BatchLimit     int
	PublishTimeout time.Duration
	Policy         schedule.RetryPolicy
	Clock          schedule.Clock
}

func NewDispatcher(store schedule.Store, publisher schedule.PublishClient, opts Options) *Dispatcher {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 10
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 15 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = schedule.SystemClock()
	}
	if opts.Policy.MaxAttempts == 0 && opts.Policy.BaseDelay == 0 {
		opts.Policy = schedule.DefaultRetryPolicy()
	}

	return &Dispatcher{
		store:          store,
		publisher:      publisher,
		policy:         opts.Policy,
		clock:          opts.Clock,
		workerCount:    opts.WorkerCount,
		batchLimit:     opts.BatchLimit,
		publishTimeout: opts.PublishTimeout,
	}
}

// RunCycle processes one batch of due posts and returns the report. Only a
// failure to read the due set aborts the cycle; per-post failures are
// isolated and enumerated in the report.
func (d *Dispatcher) RunCycle(ctx context.Context) (*Report, error) {
	if !d.cycleMu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer d.cycleMu.Unlock()

	now := d.clock.Now()
	report := &Report{StartedAt: now}

	due, err := d.store.FindDue(ctx, now, nil, d.batchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to find due posts: %w", err)
	}

	if len(due) == 0 {
		report.Duration = time.Since(now)
		return report, nil
	}

	jobs := make(chan schedule.Post, len(due))
	results := make(chan outcome, len(due))

	// Once a post's attempt starts it runs to completion (or publish
	// timeout) even if ctx is cancelled, so an attempt is never abandoned
	// between the publish call and the record write. Cancellation only
	// stops new posts from being picked up.
	workCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < d.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for post := range jobs {
				select {
				case <-ctx.Done():
					results <- outcome{kind: outcomeSkipped}
					continue
				default:
				}
				results <- d.processPost(workCtx, post, now)
			}
		}()
	}

	for _, post := range due {
		jobs <- post
	}
	close(jobs)

	wg.Wait()
	close(results)

	for o := range results {
		report.record(o)
	}

	report.Duration = time.Since(now)

	slog.Info("Dispatch cycle completed",
		"attempted", report.Attempted,
		"published", report.Published,
		"retried", report.Retried,
		"cancelled", report.Cancelled,
		"skipped", report.Skipped,
		"failures", len(report.Failures),
		"duration", report.Duration)

	return report, nil
}

// processPost handles a single due post. The status re-check plus the
// pending-guarded store writes keep a concurrent cancel from racing the
// publish result.
func (d *Dispatcher) processPost(ctx context.Context, post schedule.Post, now time.Time) outcome {
	current, err := d.store.Get(ctx, post.ID)
	if err != nil {
		return persistenceFailure(post.ID, fmt.Errorf("pre-attempt read failed: %w", err))
	}
	if current == nil || current.Status != schedule.StatusPending {
		slog.Debug("Skipping post no longer pending", "id", post.ID)
		return outcome{kind: outcomeSkipped}
	}

	pubCtx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	externalID, pubErr := d.publisher.Publish(pubCtx, current.Platform, current.Content)
	cancel()

	if pubErr == nil {
		if err := d.store.MarkPublished(ctx, current.ID, externalID, now); err != nil {
			// The platform accepted the post but the outcome was not
			// recorded; surface loudly so an operator can reconcile
			// instead of risking a double publish.
			slog.Error("Publish succeeded but outcome not recorded",
				"id", current.ID, "external_post_id", externalID, "error", err)
			return persistenceFailure(current.ID, err)
		}
		slog.Info("Post published", "id", current.ID, "platform", current.Platform, "external_post_id", externalID)
		return outcome{kind: outcomePublished}
	}

	failure := schedule.AsPublishError(pubErr)
	attempts := current.RetryCount + 1
	action := d.policy.NextAction(attempts, failure)

	if action.Retry {
		nextAttempt := now.Add(action.Delay)
		if err := d.store.MarkRetry(ctx, current.ID, failure.Error(), nextAttempt, now); err != nil {
			return persistenceFailure(current.ID, err)
		}
		slog.Warn("Publish failed, retry scheduled",
			"id", current.ID, "platform", current.Platform,
			"retry_count", attempts, "max_attempts", d.policy.MaxAttempts,
			"delay", action.Delay.String(), "error", pubErr)
		return outcome{
			kind:    outcomeRetried,
			failure: &Failure{ID: current.ID, Category: CategoryPublish, Message: failure.Error()},
		}
	}

	if err := d.store.MarkCancelled(ctx, current.ID, failure.Error(), now); err != nil {
		return persistenceFailure(current.ID, err)
	}
	slog.Error("Publish failed permanently, post cancelled",
		"id", current.ID, "platform", current.Platform,
		"retry_count", attempts, "kind", string(failure.Kind), "error", pubErr)
	return outcome{
		kind:    outcomeCancelled,
		failure: &Failure{ID: current.ID, Category: CategoryPublish, Message: failure.Error()},
	}
}

func persistenceFailure(id string, err error) outcome {
	return outcome{
		kind:    outcomeFailed,
		failure: &Failure{ID: id, Category: CategoryPersistence, Message: err.Error()},
	}
}
