package metrics

import (
	"sync"
	"time"
)

type providerStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

type pushStats struct {
	connects   int
	reconnects int
	messages   int
	dropped    int
}

type matcherStats struct {
	cycles    int
	matches   int
	ambiguous int
}

// Recorder captures lightweight, in-memory metrics about provider calls,
// polling cycles, push connections, and matcher lookups. It is intentionally
// simple so it can be swapped for a real backend later.
type Recorder struct {
	mu      sync.Mutex
	stats   map[string]*providerStats
	push    pushStats
	matcher matcherStats
	otel    *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*providerStats),
		otel:  otel,
	}
}

// RecordProviderAttempt increments counters for a provider call and stores
// the last observed latency.
func (r *Recorder) RecordProviderAttempt(provider string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	stats := r.ensureStats(provider)
	r.mu.Lock()
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordProviderAttempt(provider, duration, err)
	}
}

// RecordRateLimit tracks that a provider response hit a rate limit and stores
// the last Retry-After.
func (r *Recorder) RecordRateLimit(provider string, retryAfter time.Duration) {
	if r == nil {
		return
	}

	stats := r.ensureStats(provider)
	r.mu.Lock()
	stats.rateLimitHits++
	if retryAfter > 0 {
		stats.lastRetryAfter = retryAfter
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordRateLimit(provider, retryAfter)
	}
}

// RecordFetchCycle tracks one completed polling scheduler cycle for a key.
func (r *Recorder) RecordFetchCycle(key string, duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordFetchCycle(key, duration, err)
}

// RecordPushConnect tracks a successful push channel open. reconnect is true
// when the open followed a failure rather than the initial dial.
func (r *Recorder) RecordPushConnect(matchID string, reconnect bool) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.push.connects++
	if reconnect {
		r.push.reconnects++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordPushConnect(matchID, reconnect)
	}
}

// RecordPushMessage tracks a decoded push message; dropped marks messages
// discarded as malformed or unrecognized.
func (r *Recorder) RecordPushMessage(msgType string, dropped bool) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.push.messages++
	if dropped {
		r.push.dropped++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordPushMessage(msgType, dropped)
	}
}

// RecordMatcherCycle tracks one external feed lookup cycle. matched reports
// whether exactly one provider event satisfied the name rule; ambiguous
// reports that more than one did.
func (r *Recorder) RecordMatcherCycle(matched, ambiguous bool) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.matcher.cycles++
	if matched {
		r.matcher.matches++
	}
	if ambiguous {
		r.matcher.ambiguous++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordMatcherCycle(matched, ambiguous)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// ProviderCalls returns the total attempts recorded for a provider.
func (r *Recorder) ProviderCalls(provider string) int {
	return r.Snapshot(provider).Calls
}

// ProviderErrors returns the total failed attempts recorded for a provider.
func (r *Recorder) ProviderErrors(provider string) int {
	return r.Snapshot(provider).Errors
}

// RateLimitHits returns the number of rate limit events seen for a provider.
func (r *Recorder) RateLimitHits(provider string) int {
	return r.Snapshot(provider).RateLimitHits
}

// PushConnects returns total successful push opens.
func (r *Recorder) PushConnects() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.push.connects
}

// PushReconnects returns push opens that followed a failure.
func (r *Recorder) PushReconnects() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.push.reconnects
}

// MatcherMatches returns the number of cycles that located exactly one event.
func (r *Recorder) MatcherMatches() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matcher.matches
}

// Snapshot returns a copy of the current stats for the provider.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(provider string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.stats[provider]
	if !ok || stats == nil {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

func (r *Recorder) ensureStats(provider string) *providerStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[provider]
	if !ok {
		stats = &providerStats{}
		r.stats[provider] = stats
	}
	return stats
}
