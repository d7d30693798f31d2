package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"livematch-service/internal/cache"
	"livematch-service/internal/logging"
	"livematch-service/internal/metrics"
)

const (
	defaultInterval = 30 * time.Second
	maxFetchTimeout = 30 * time.Second
)

// FetchFunc produces the value for one poll cycle of the given key. It must
// honor ctx, which carries a deadline shorter than the polling interval so a
// hung request can never starve the next scheduled attempt.
type FetchFunc func(ctx context.Context, key string) (any, error)

// Scheduler drives one periodic fetch per subscription key. Concurrent
// subscribers of the same key share a single timer, in-flight fetch, and
// cache entry. The scheduler is the only writer of the cache store.
type Scheduler struct {
	store   *cache.Store
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	mu     sync.Mutex
	keys   map[string]*keyState
	closed bool
}

type keyState struct {
	key      string
	fetch    FetchFunc
	interval time.Duration

	// generation stamps in-flight work; results carrying an older generation
	// are discarded instead of being written to the entry.
	generation uint64

	refs     int // attached subscriptions
	active   int // attached subscriptions with enabled=true
	inFlight bool
	timer    *time.Timer
	cancel   context.CancelFunc
}

// New constructs a Scheduler around the given store.
func New(store *cache.Store, logger *slog.Logger, recorder *metrics.Recorder) *Scheduler {
	if store == nil {
		store = cache.NewStore()
	}
	return &Scheduler{
		store:   store,
		logger:  logger,
		metrics: recorder,
		now:     time.Now,
		keys:    make(map[string]*keyState),
	}
}

// Store exposes the underlying entry store (read-only use by callers).
func (s *Scheduler) Store() *cache.Store {
	return s.store
}

// Subscribe attaches a consumer to key. The first subscription to a key
// issues an immediate fetch; later ones share the running timer and entry.
func (s *Scheduler) Subscribe(key string, fetch FetchFunc, interval time.Duration, enabled bool) *Subscription {
	if interval <= 0 {
		interval = defaultInterval
	}
	sub := &Subscription{
		s:        s,
		fetch:    fetch,
		interval: interval,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sub.key = key
	sub.enabled = enabled
	s.attachLocked(sub)
	return sub
}

// Close stops every timer and invalidates all in-flight work. Subscriptions
// become inert; Snapshot keeps returning the last cached values.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, ks := range s.keys {
		s.quiesceLocked(ks)
	}
}

func (s *Scheduler) attachLocked(sub *Subscription) {
	s.store.Acquire(sub.key)

	ks, ok := s.keys[sub.key]
	if !ok {
		ks = &keyState{
			key:      sub.key,
			fetch:    sub.fetch,
			interval: sub.interval,
		}
		s.keys[sub.key] = ks
	}
	ks.refs++
	if sub.enabled {
		ks.active++
		s.kickLocked(ks)
	}
}

func (s *Scheduler) detachLocked(key string, wasEnabled bool) {
	s.store.Release(key)

	ks, ok := s.keys[key]
	if !ok {
		return
	}
	ks.refs--
	if wasEnabled {
		ks.active--
	}
	if ks.refs <= 0 {
		s.quiesceLocked(ks)
		delete(s.keys, key)
		return
	}
	if ks.active <= 0 {
		s.quiesceLocked(ks)
	}
}

// quiesceLocked stops the timer, cancels in-flight work, and bumps the
// generation so a late completion is discarded.
func (s *Scheduler) quiesceLocked(ks *keyState) {
	ks.generation++
	if ks.timer != nil {
		ks.timer.Stop()
		ks.timer = nil
	}
	if ks.cancel != nil {
		ks.cancel()
		ks.cancel = nil
	}
	if ks.inFlight {
		// The invalidated cycle will never report back; the entry must not
		// look busy forever.
		s.store.ClearLoading(ks.key)
		ks.inFlight = false
	}
}

// kickLocked issues a fetch now if the key is enabled and idle.
func (s *Scheduler) kickLocked(ks *keyState) {
	if s.closed || ks.inFlight || ks.active <= 0 {
		return
	}
	if ks.timer != nil {
		ks.timer.Stop()
		ks.timer = nil
	}
	s.startFetchLocked(ks)
}

func (s *Scheduler) startFetchLocked(ks *keyState) {
	ks.inFlight = true
	gen := ks.generation
	s.store.SetLoading(ks.key)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout(ks.interval))
	ks.cancel = cancel

	key, fetch := ks.key, ks.fetch
	go func() {
		start := s.now()
		data, err := fetch(ctx, key)
		cancel()
		s.complete(key, gen, data, err, s.now().Sub(start))
	}()
}

func (s *Scheduler) complete(key string, gen uint64, data any, err error, took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordFetchCycle(key, took, err)
	}

	ks, ok := s.keys[key]
	if !ok || ks.generation != gen {
		// Stale completion for an abandoned key or generation. Drop silently;
		// the race policy forbids applying it anywhere.
		return
	}

	ks.inFlight = false
	ks.cancel = nil
	s.store.SetResult(key, data, err, s.now())

	if err != nil {
		logging.Warn(s.logger, "fetch failed",
			slog.String(logging.FieldKey, key),
			slog.Int64(logging.FieldDurationMS, took.Milliseconds()),
			"error", err,
		)
	}

	if s.closed || ks.active <= 0 {
		return
	}
	// Next attempt is scheduled relative to completion, never from start, so
	// slow responses cannot overlap the next fetch.
	ks.timer = time.AfterFunc(ks.interval, func() {
		s.timerFired(key, gen)
	})
}

func (s *Scheduler) timerFired(key string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ks, ok := s.keys[key]
	if !ok || ks.generation != gen || s.closed {
		return
	}
	ks.timer = nil
	if ks.inFlight || ks.active <= 0 {
		return
	}
	s.startFetchLocked(ks)
}

// fetchTimeout keeps the per-fetch deadline under the polling interval.
func fetchTimeout(interval time.Duration) time.Duration {
	t := interval * 4 / 5
	if t > maxFetchTimeout {
		t = maxFetchTimeout
	}
	if t <= 0 {
		t = interval
	}
	return t
}
