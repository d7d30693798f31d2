package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"livematch-service/internal/cache"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSubscribeIssuesImmediateFetch(t *testing.T) {
	s := New(cache.NewStore(), nil, nil)
	defer s.Close()

	var calls atomic.Int32
	sub := s.Subscribe("match:1", func(ctx context.Context, key string) (any, error) {
		calls.Add(1)
		return "state", nil
	}, time.Hour, true)
	defer sub.Stop()

	waitFor(t, time.Second, func() bool { return calls.Load() == 1 })
	waitFor(t, time.Second, func() bool {
		e := sub.Snapshot()
		return !e.Loading && e.Data == "state"
	})
}

func TestDisabledSubscriptionDoesNotFetch(t *testing.T) {
	s := New(cache.NewStore(), nil, nil)
	defer s.Close()

	var calls atomic.Int32
	sub := s.Subscribe("match:1", func(ctx context.Context, key string) (any, error) {
		calls.Add(1)
		return nil, nil
	}, 5*time.Millisecond, false)
	defer sub.Stop()

	time.Sleep(30 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("disabled subscription fetched %d times", calls.Load())
	}

	sub.SetEnabled(true)
	waitFor(t, time.Second, func() bool { return calls.Load() >= 1 })

	sub.SetEnabled(false)
	settled := calls.Load()
	time.Sleep(40 * time.Millisecond)
	// One already-started cycle may complete, but scheduling must stop.
	if calls.Load() > settled+1 {
		t.Fatalf("fetches continued after disable: %d -> %d", settled, calls.Load())
	}
}

func TestDisableMidFetchClearsLoading(t *testing.T) {
	s := New(cache.NewStore(), nil, nil)
	defer s.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	sub := s.Subscribe("k", func(ctx context.Context, key string) (any, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "late", nil
	}, time.Hour, true)
	defer sub.Stop()

	<-started
	sub.SetEnabled(false)

	// The invalidated cycle must not leave the entry busy forever.
	waitFor(t, time.Second, func() bool { return !sub.Snapshot().Loading })
	close(release)

	// Nor may its late result land.
	time.Sleep(20 * time.Millisecond)
	if e := sub.Snapshot(); e.Loading || e.Data != nil {
		t.Fatalf("entry after disable = %+v", e)
	}
}

func TestStaleWhileErrorSequence(t *testing.T) {
	s := New(cache.NewStore(), nil, nil)
	defer s.Close()

	// Unbuffered so the test controls exactly when each cycle settles.
	outcomes := make(chan error)
	var completed atomic.Int32
	sub := s.Subscribe("k", func(ctx context.Context, key string) (any, error) {
		err := <-outcomes
		n := completed.Add(1)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	}, 5*time.Millisecond, true)
	defer sub.Stop()

	step := func(err error, want int32) {
		t.Helper()
		outcomes <- err
		waitFor(t, time.Second, func() bool { return completed.Load() == want })
	}

	step(nil, 1)
	waitFor(t, time.Second, func() bool { return sub.Snapshot().Data == 1 })

	step(errors.New("fail one"), 2)
	e := sub.Snapshot()
	if e.Data != 1 {
		t.Fatalf("data after failure = %v, want value from first ok", e.Data)
	}
	if e.Err != "fail one" {
		t.Fatalf("err = %q", e.Err)
	}

	step(errors.New("fail two"), 3)
	if e := sub.Snapshot(); e.Data != 1 {
		t.Fatalf("data after second failure = %v", e.Data)
	}

	step(nil, 4)
	waitFor(t, time.Second, func() bool {
		e := sub.Snapshot()
		return e.Data == 4 && !e.HasError()
	})
}

func TestKeySwitchDiscardsLateResult(t *testing.T) {
	s := New(cache.NewStore(), nil, nil)
	defer s.Close()

	release := make(chan struct{})
	sub := s.Subscribe("a", func(ctx context.Context, key string) (any, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "from-" + key, nil
	}, time.Hour, true)
	defer sub.Stop()

	// Switch while a's fetch is still in flight.
	sub.SetKey("b")
	if sub.Key() != "b" {
		t.Fatalf("key = %q", sub.Key())
	}
	close(release)

	waitFor(t, time.Second, func() bool { return sub.Snapshot().Data == "from-b" })
	// The abandoned key lost its last consumer; its entry must be gone and
	// its late result dropped rather than resurrected.
	time.Sleep(20 * time.Millisecond)
	if _, ok := s.Store().Get("a"); ok {
		t.Fatal("entry for abandoned key survived")
	}
	if e := sub.Snapshot(); e.Data != "from-b" {
		t.Fatalf("data = %v, want from-b", e.Data)
	}
}

func TestSharedKeySingleFetcher(t *testing.T) {
	s := New(cache.NewStore(), nil, nil)
	defer s.Close()

	var calls atomic.Int32
	fetch := func(ctx context.Context, key string) (any, error) {
		calls.Add(1)
		return "shared", nil
	}

	one := s.Subscribe("k", fetch, time.Hour, true)
	two := s.Subscribe("k", fetch, time.Hour, true)

	waitFor(t, time.Second, func() bool { return calls.Load() >= 1 })
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != 1 {
		t.Fatalf("shared key fetched %d times, want 1", calls.Load())
	}
	if s.Store().Refs("k") != 2 {
		t.Fatalf("refs = %d, want 2", s.Store().Refs("k"))
	}

	one.Stop()
	if _, ok := s.Store().Get("k"); !ok {
		t.Fatal("entry collected while still referenced")
	}
	two.Stop()
	if _, ok := s.Store().Get("k"); ok {
		t.Fatal("entry survived last unsubscribe")
	}
}

func TestNoOverlappingFetches(t *testing.T) {
	s := New(cache.NewStore(), nil, nil)
	defer s.Close()

	var inFlight, maxInFlight atomic.Int32
	sub := s.Subscribe("k", func(ctx context.Context, key string) (any, error) {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond) // longer than the interval
		inFlight.Add(-1)
		return nil, nil
	}, 5*time.Millisecond, true)
	defer sub.Stop()

	time.Sleep(100 * time.Millisecond)
	if maxInFlight.Load() > 1 {
		t.Fatalf("observed %d concurrent fetches for one key", maxInFlight.Load())
	}
}

func TestStopCancelsInFlightContext(t *testing.T) {
	s := New(cache.NewStore(), nil, nil)
	defer s.Close()

	canceled := make(chan struct{})
	sub := s.Subscribe("k", func(ctx context.Context, key string) (any, error) {
		<-ctx.Done()
		close(canceled)
		return nil, ctx.Err()
	}, time.Hour, true)

	time.Sleep(10 * time.Millisecond)
	sub.Stop()

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("in-flight fetch context was not canceled on stop")
	}

	// Stop is idempotent.
	sub.Stop()
}

func TestFetchTimeoutStaysUnderInterval(t *testing.T) {
	if got := fetchTimeout(10 * time.Second); got >= 10*time.Second {
		t.Fatalf("timeout %v not under interval", got)
	}
	if got := fetchTimeout(10 * time.Minute); got != maxFetchTimeout {
		t.Fatalf("timeout %v, want cap %v", got, maxFetchTimeout)
	}
	if got := fetchTimeout(time.Nanosecond); got <= 0 {
		t.Fatalf("timeout %v must be positive", got)
	}
}

func TestCloseStopsScheduling(t *testing.T) {
	s := New(cache.NewStore(), nil, nil)

	var calls atomic.Int32
	sub := s.Subscribe("k", func(ctx context.Context, key string) (any, error) {
		calls.Add(1)
		return nil, nil
	}, 5*time.Millisecond, true)
	defer sub.Stop()

	waitFor(t, time.Second, func() bool { return calls.Load() >= 1 })
	s.Close()
	settled := calls.Load()
	time.Sleep(40 * time.Millisecond)
	if calls.Load() > settled {
		t.Fatalf("fetches continued after close: %d -> %d", settled, calls.Load())
	}
}
