package matches

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"livematch-service/internal/cache"
	"livematch-service/internal/config"
	"livematch-service/internal/domain"
	"livematch-service/internal/feed"
	"livematch-service/internal/providers"
	"livematch-service/internal/push"
	"livematch-service/internal/scheduler"
)

type stubBackend struct {
	mu        sync.Mutex
	summaries []domain.MatchSummary
	states    map[string]domain.MatchState
	timelines map[string][]domain.MatchEvent
}

func (b *stubBackend) setState(state domain.MatchState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.states == nil {
		b.states = make(map[string]domain.MatchState)
	}
	b.states[state.MatchID] = state
}

func (b *stubBackend) setSummaries(summaries []domain.MatchSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summaries = summaries
}

func (b *stubBackend) FetchMatch(ctx context.Context, matchID string) (domain.MatchState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.states[matchID]
	if !ok {
		return domain.MatchState{}, errors.New("no state scripted")
	}
	return state, nil
}

func (b *stubBackend) FetchTimeline(ctx context.Context, matchID string) ([]domain.MatchEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timelines[matchID], nil
}

func (b *stubBackend) FetchScoreboard(ctx context.Context, league string) ([]domain.MatchSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summaries, nil
}

type stubExternal struct {
	mu     sync.Mutex
	events []providers.ExternalEvent
	entry  *domain.ExternalEntry
}

func (e *stubExternal) set(events []providers.ExternalEvent, entry *domain.ExternalEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events, e.entry = events, entry
}

func (e *stubExternal) FetchEvents(ctx context.Context, league string) ([]providers.ExternalEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events, nil
}

func (e *stubExternal) FetchLiveEntry(ctx context.Context, eventID string) (domain.ExternalEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entry == nil {
		return domain.ExternalEntry{}, errors.New("no entry scripted")
	}
	return *e.entry, nil
}

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

func fastIntervals() config.IntervalsConfig {
	return config.IntervalsConfig{
		Snapshot:   5 * time.Millisecond,
		Timeline:   5 * time.Millisecond,
		Scoreboard: 5 * time.Millisecond,
		Feed:       5 * time.Millisecond,
	}
}

func arsenalSummary() domain.MatchSummary {
	return domain.MatchSummary{
		MatchID:   "m1",
		League:    "premier-league",
		Sport:     domain.SportFootball,
		HomeName:  "Arsenal FC",
		AwayName:  "Chelsea FC",
		StartTime: time.Unix(1_700_000_000, 0),
		Phase:     domain.PhaseScheduled,
	}
}

func TestEffectiveStateHandover(t *testing.T) {
	t0 := time.Unix(1_700_000_100, 0)
	backend := &stubBackend{}
	backend.setSummaries([]domain.MatchSummary{arsenalSummary()})
	backend.setState(domain.MatchState{
		MatchID:    "m1",
		Sport:      domain.SportFootball,
		Phase:      domain.PhaseScheduled,
		Version:    1,
		ObservedAt: t0,
	})

	external := &stubExternal{}
	external.set(
		[]providers.ExternalEvent{{ID: "e1", HomeName: "Arsenal", AwayName: "Chelsea"}},
		&domain.ExternalEntry{
			Phase:      domain.PhaseLive,
			Clock:      domain.StringPtr("12:34"),
			Score:      domain.Score{Home: 1, Away: 0},
			IsLive:     true,
			ObservedAt: t0,
		},
	)

	sched := scheduler.New(cache.NewStore(), nil, nil)
	defer sched.Close()
	svc := NewService(context.Background(), Options{
		Scheduler: sched,
		Backend:   backend,
		Matcher:   feed.NewMatcher(external, nil, nil),
		Intervals: fastIntervals(),
		League:    "premier-league",
		Now:       func() time.Time { return t0 },
	})
	defer svc.Close()

	// The feed sees the match live before the backend's phase sync catches up.
	waitFor(t, time.Second, func() bool {
		view, err := svc.State("m1")
		return err == nil && view.Effective.Source == domain.SourceExternal
	})
	view, _ := svc.State("m1")
	if !view.Effective.Phase.IsLive() {
		t.Fatalf("phase = %s", view.Effective.Phase)
	}
	if view.Effective.Score != (domain.Score{Home: 1, Away: 0}) {
		t.Fatalf("score = %+v", view.Effective.Score)
	}
	if view.Effective.Clock == nil || *view.Effective.Clock != "12:34" {
		t.Fatalf("clock = %v", view.Effective.Clock)
	}
	if view.DisplayClock != "12:34" {
		t.Fatalf("display = %q", view.DisplayClock)
	}

	// Backend catches up with a newer version; it takes the score back and
	// the external entry no longer overrides anything.
	backend.setState(domain.MatchState{
		MatchID:    "m1",
		Sport:      domain.SportFootball,
		Phase:      domain.PhaseLiveFirstHalf,
		Clock:      domain.StringPtr("13:00"),
		Score:      domain.Score{Home: 1, Away: 0},
		Version:    2,
		ObservedAt: t0,
	})
	waitFor(t, time.Second, func() bool {
		view, err := svc.State("m1")
		return err == nil && view.Effective.Source == domain.SourceBackend && view.Version == 2
	})
	view, _ = svc.State("m1")
	if *view.Effective.Clock != "13:00" || view.DisplayClock != "13:00" {
		t.Fatalf("clock = %v, display = %q", *view.Effective.Clock, view.DisplayClock)
	}
	if view.Effective.Score != (domain.Score{Home: 1, Away: 0}) {
		t.Fatalf("score = %+v", view.Effective.Score)
	}
}

func TestScoreboardDrivesSessionLifecycle(t *testing.T) {
	backend := &stubBackend{}
	backend.setSummaries([]domain.MatchSummary{arsenalSummary()})
	backend.setState(domain.MatchState{MatchID: "m1", Phase: domain.PhaseScheduled, Version: 1})

	sched := scheduler.New(cache.NewStore(), nil, nil)
	defer sched.Close()
	svc := NewService(context.Background(), Options{
		Scheduler: sched,
		Backend:   backend,
		Matcher:   feed.NewMatcher(&stubExternal{}, nil, nil),
		Intervals: fastIntervals(),
		League:    "premier-league",
	})
	defer svc.Close()

	waitFor(t, time.Second, func() bool {
		_, err := svc.State("m1")
		return err == nil
	})
	if len(svc.Matches()) != 1 {
		t.Fatalf("matches = %d", len(svc.Matches()))
	}
	if !svc.Ready() {
		t.Fatal("service not ready after scoreboard fetch")
	}

	// Match drops off the scoreboard; its session closes.
	backend.setSummaries(nil)
	waitFor(t, time.Second, func() bool {
		_, err := svc.State("m1")
		return errors.Is(err, ErrUnknownMatch)
	})
}

func TestTimelineMergesPolledEvents(t *testing.T) {
	score := domain.Score{Home: 1}
	backend := &stubBackend{
		timelines: map[string][]domain.MatchEvent{
			"m1": {
				{Seq: 2, Type: "goal", Minute: 12, Score: &score},
				{Seq: 1, Type: "kickoff"},
			},
		},
	}
	backend.setSummaries([]domain.MatchSummary{arsenalSummary()})
	backend.setState(domain.MatchState{MatchID: "m1", Phase: domain.PhaseLiveFirstHalf, Version: 1})

	sched := scheduler.New(cache.NewStore(), nil, nil)
	defer sched.Close()
	svc := NewService(context.Background(), Options{
		Scheduler: sched,
		Backend:   backend,
		Matcher:   feed.NewMatcher(&stubExternal{}, nil, nil),
		Intervals: fastIntervals(),
		League:    "premier-league",
	})
	defer svc.Close()

	waitFor(t, time.Second, func() bool {
		events, err := svc.Timeline("m1")
		return err == nil && len(events) == 2
	})
	events, _ := svc.Timeline("m1")
	if events[0].Seq != 1 || events[1].Seq != 2 {
		t.Fatalf("events out of order: %+v", events)
	}
}

func TestPushStateIsVersionGated(t *testing.T) {
	sched := scheduler.New(cache.NewStore(), nil, nil)
	defer sched.Close()
	backend := &stubBackend{}
	backend.setState(domain.MatchState{MatchID: "m1", Phase: domain.PhaseLiveFirstHalf, Version: 10})

	session := newSession(context.Background(), arsenalSummary(), sessionDeps{
		sched:     sched,
		backend:   backend,
		matcher:   feed.NewMatcher(&stubExternal{}, nil, nil),
		intervals: config.IntervalsConfig{Snapshot: time.Hour, Timeline: time.Hour, Feed: time.Hour},
	})
	defer session.Close()

	waitFor(t, time.Second, func() bool {
		return session.Effective(time.Now()).Version == 10
	})

	// Older pushed state must not regress the session.
	session.onPushState(push.StateData{Phase: domain.PhaseScheduled, Version: 9})
	if got := session.Effective(time.Now()); got.Version != 10 || got.Effective.Phase != domain.PhaseLiveFirstHalf {
		t.Fatalf("stale push applied: %+v", got)
	}

	session.onPushState(push.StateData{Phase: domain.PhaseHalftime, Version: 11})
	if got := session.Effective(time.Now()); got.Version != 11 || got.Effective.Phase != domain.PhaseHalftime {
		t.Fatalf("newer push not applied: %+v", got)
	}
}
