package providers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"livematch-service/internal/domain"
	"livematch-service/internal/logging"
	"livematch-service/internal/metrics"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 250 * time.Millisecond
)

// RetryingProvider wraps a DataProvider with bounded retries. Rate limit
// responses wait out RetryAfter when the upstream supplies one; other errors
// back off linearly. Context cancellation aborts the remaining attempts.
type RetryingProvider struct {
	inner   DataProvider
	name    string
	logger  *slog.Logger
	metrics *metrics.Recorder

	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRetryingProvider wraps inner. A nil inner yields a provider whose calls
// fail with ErrProviderUnavailable.
func NewRetryingProvider(inner DataProvider, name string, logger *slog.Logger, recorder *metrics.Recorder) *RetryingProvider {
	return &RetryingProvider{
		inner:       inner,
		name:        name,
		logger:      logger,
		metrics:     recorder,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultRetryDelay,
		sleep:       sleepCtx,
	}
}

func (r *RetryingProvider) FetchMatch(ctx context.Context, matchID string) (domain.MatchState, error) {
	var state domain.MatchState
	err := r.retry(ctx, "fetch_match", func(ctx context.Context) error {
		var innerErr error
		state, innerErr = r.inner.FetchMatch(ctx, matchID)
		return innerErr
	})
	return state, err
}

func (r *RetryingProvider) FetchTimeline(ctx context.Context, matchID string) ([]domain.MatchEvent, error) {
	var events []domain.MatchEvent
	err := r.retry(ctx, "fetch_timeline", func(ctx context.Context) error {
		var innerErr error
		events, innerErr = r.inner.FetchTimeline(ctx, matchID)
		return innerErr
	})
	return events, err
}

func (r *RetryingProvider) FetchScoreboard(ctx context.Context, league string) ([]domain.MatchSummary, error) {
	var matches []domain.MatchSummary
	err := r.retry(ctx, "fetch_scoreboard", func(ctx context.Context) error {
		var innerErr error
		matches, innerErr = r.inner.FetchScoreboard(ctx, league)
		return innerErr
	})
	return matches, err
}

func (r *RetryingProvider) retry(ctx context.Context, op string, fn func(context.Context) error) error {
	if r.inner == nil {
		return ErrProviderUnavailable
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		start := time.Now()
		err := fn(ctx)
		r.metrics.RecordProviderAttempt(r.name, time.Since(start), err)
		if err == nil {
			return nil
		}
		// Unchanged resources and context errors are terminal, not transient.
		if errors.Is(err, ErrNotModified) || ctx.Err() != nil {
			return err
		}
		lastErr = err

		delay := r.baseDelay * time.Duration(attempt)
		if rlErr, ok := AsRateLimitError(err); ok {
			r.metrics.RecordRateLimit(r.name, rlErr.RetryAfter)
			if rlErr.RetryAfter > delay {
				delay = rlErr.RetryAfter
			}
		}
		logging.Warn(r.logger, "provider call failed",
			slog.String(logging.FieldProvider, r.name),
			slog.Int(logging.FieldAttempt, attempt),
			slog.String("op", op),
			"error", err,
		)
		if attempt == r.maxAttempts {
			break
		}
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
