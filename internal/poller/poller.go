package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"restage-service/internal/domain"
	"restage-service/internal/provider"
)

// CheckFunc is one idempotent status check for a task.
type CheckFunc func(ctx context.Context) (*domain.TaskStatus, error)

// TimeoutError reports an exhausted attempt budget without a terminal state.
type TimeoutError struct {
	Elapsed  time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("polling timed out after %d attempts (%s)", e.Attempts, e.Elapsed.Round(time.Millisecond))
}

// TaskFailedError carries a provider-reported failure. Such failures are
// terminal: the provider decided (content policy, bad input), so no amount of
// further polling or resubmitting the same task can change the answer.
type TaskFailedError struct {
	Reason string
}

func (e *TaskFailedError) Error() string {
	return "task failed: " + e.Reason
}

// Poller runs one bounded status-check loop per task. Checks for a single
// task are strictly sequential; a task is never polled by more than one loop.
type Poller struct {
	interval    time.Duration
	firstDelay  time.Duration
	maxAttempts int
	logger      *zlog.Zerolog
}

type Options struct {
	// Interval is the wait between status checks. Zero is meaningful and runs
	// checks back to back; a negative value selects the default interval.
	Interval time.Duration
	// FirstDelay, when positive, replaces the interval before the first check.
	FirstDelay  time.Duration
	MaxAttempts int
	Logger      *zlog.Zerolog
}

func New(opts Options) *Poller {
	interval := opts.Interval
	if interval < 0 {
		interval = domain.DefaultPollInterval
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxPollAttempts
	}
	logger := opts.Logger
	if logger == nil {
		logger = &zlog.Logger
	}
	return &Poller{
		interval:    interval,
		firstDelay:  opts.FirstDelay,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Poll waits one interval (the shorter first delay on attempt one, when set),
// checks, and repeats until a terminal state or the attempt budget runs out.
// A completed check returns its images immediately. A provider-reported
// failure terminates immediately with TaskFailedError. A transient check
// error consumes the attempt and the loop carries on: one flaky round trip
// must not abort an operation the budget still covers. The protocol-mismatch
// case (completed but no images) is the exception and aborts at once.
func (p *Poller) Poll(ctx context.Context, taskID string, check CheckFunc) ([]string, error) {
	start := time.Now()
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := p.wait(ctx, p.delayFor(attempt)); err != nil {
			return nil, err
		}

		status, err := check(ctx)
		if err != nil {
			if errors.Is(err, provider.ErrCompletedWithoutImages) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn().
				Err(err).
				Str("task_id", taskID).
				Int("attempt", attempt).
				Msg("Status check failed, will retry")
			continue
		}

		switch status.State {
		case domain.TaskCompleted:
			p.logger.Info().
				Str("task_id", taskID).
				Int("attempt", attempt).
				Dur("elapsed", time.Since(start)).
				Msg("Task completed")
			return status.Images, nil
		case domain.TaskFailed:
			return nil, &TaskFailedError{Reason: status.FailureReason}
		default:
			p.logger.Debug().
				Str("task_id", taskID).
				Int("attempt", attempt).
				Msg("Task still processing")
		}
	}
	return nil, &TimeoutError{Elapsed: time.Since(start), Attempts: p.maxAttempts}
}

func (p *Poller) delayFor(attempt int) time.Duration {
	if attempt == 1 && p.firstDelay > 0 {
		return p.firstDelay
	}
	return p.interval
}

func (p *Poller) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
