package providers

import (
	"context"
	"sync"
	"time"

	"livematch-service/internal/domain"
	"livematch-service/internal/metrics"
)

// LimitedProvider enforces a minimum spacing between calls to an unmetered
// public provider. Calls queue behind each other; a caller whose context
// expires while waiting gets the context error without consuming a slot.
type LimitedProvider struct {
	inner   ExternalProvider
	name    string
	spacing time.Duration
	metrics *metrics.Recorder
	now     func() time.Time

	mu     sync.Mutex
	next   time.Time
	closed bool
	done   chan struct{}
}

// NewLimitedProvider wraps inner with a min spacing between calls.
func NewLimitedProvider(inner ExternalProvider, name string, spacing time.Duration, recorder *metrics.Recorder) *LimitedProvider {
	return &LimitedProvider{
		inner:   inner,
		name:    name,
		spacing: spacing,
		metrics: recorder,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

func (l *LimitedProvider) FetchEvents(ctx context.Context, league string) ([]ExternalEvent, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.FetchEvents(ctx, league)
}

func (l *LimitedProvider) FetchLiveEntry(ctx context.Context, eventID string) (domain.ExternalEntry, error) {
	if err := l.wait(ctx); err != nil {
		return domain.ExternalEntry{}, err
	}
	return l.inner.FetchLiveEntry(ctx, eventID)
}

// Close releases all waiting callers with ErrProviderUnavailable.
func (l *LimitedProvider) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
}

func (l *LimitedProvider) wait(ctx context.Context) error {
	if l.inner == nil {
		return ErrProviderUnavailable
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrProviderUnavailable
	}
	now := l.now()
	delay := l.next.Sub(now)
	if delay < 0 {
		delay = 0
	}
	// Reserve this caller's slot before sleeping so queued callers stack
	// spacing instead of racing for the same slot.
	slot := now.Add(delay)
	l.next = slot.Add(l.spacing)
	l.mu.Unlock()

	if delay == 0 {
		return nil
	}
	l.metrics.RecordRateLimit(l.name, delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrProviderUnavailable
	}
}
