package scheduler

import (
	"sync"
	"time"

	"livematch-service/internal/cache"
)

// Subscription is one consumer's handle on a polled key. All methods are
// safe for concurrent use; after Stop the handle is inert.
type Subscription struct {
	s        *Scheduler
	fetch    FetchFunc
	interval time.Duration

	mu      sync.Mutex
	key     string
	enabled bool
	stopped bool
}

// Key returns the current subscription key.
func (sub *Subscription) Key() string {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.key
}

// Snapshot returns the current cache entry for the subscription's key. The
// zero Entry is returned after Stop.
func (sub *Subscription) Snapshot() cache.Entry {
	sub.mu.Lock()
	key, stopped := sub.key, sub.stopped
	sub.mu.Unlock()

	if stopped {
		return cache.Entry{}
	}
	entry, _ := sub.s.store.Get(key)
	return entry
}

// SetKey moves the subscription to a new key. The old key's work is released
// (and invalidated when this was its last consumer); the new key fetches
// immediately unless another consumer already keeps it fresh.
func (sub *Subscription) SetKey(key string) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.stopped || key == sub.key {
		return
	}

	sub.s.mu.Lock()
	defer sub.s.mu.Unlock()

	sub.s.detachLocked(sub.key, sub.enabled)
	sub.key = key
	sub.s.attachLocked(sub)
}

// SetEnabled toggles polling. Flipping to true issues an immediate fetch and
// resumes the interval; flipping to false stops scheduling for this consumer.
func (sub *Subscription) SetEnabled(enabled bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.stopped || enabled == sub.enabled {
		return
	}
	sub.enabled = enabled

	sub.s.mu.Lock()
	defer sub.s.mu.Unlock()

	ks, ok := sub.s.keys[sub.key]
	if !ok {
		return
	}
	if enabled {
		ks.active++
		sub.s.kickLocked(ks)
		return
	}
	ks.active--
	if ks.active <= 0 {
		sub.s.quiesceLocked(ks)
	}
}

// Stop releases the subscription. The shared timer stops and the cache entry
// is collected once the last consumer of the key stops.
func (sub *Subscription) Stop() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.stopped {
		return
	}
	sub.stopped = true

	sub.s.mu.Lock()
	defer sub.s.mu.Unlock()
	sub.s.detachLocked(sub.key, sub.enabled)
}
