package matches

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"livematch-service/internal/config"
	"livematch-service/internal/domain"
	"livematch-service/internal/feed"
	"livematch-service/internal/logging"
	"livematch-service/internal/matchclock"
	"livematch-service/internal/metrics"
	"livematch-service/internal/providers"
	"livematch-service/internal/push"
	"livematch-service/internal/reconcile"
	"livematch-service/internal/scheduler"
)

// StateView is the read model for one match: the reconciled state plus the
// extrapolated display clock for the instant it was computed.
type StateView struct {
	MatchID       string                `json:"matchId"`
	Sport         domain.Sport          `json:"sport"`
	Effective     domain.EffectiveState `json:"effective"`
	DisplayClock  string                `json:"displayClock"`
	Version       int64                 `json:"version"`
	PushConnected bool                  `json:"pushConnected"`
	ObservedAt    time.Time             `json:"observedAt"`
}

// Session owns everything live for one match: the snapshot, timeline, and
// external feed polling subscriptions plus the push channel. Polled and
// pushed data converge on the same version-gated state and the same
// seq-deduplicated timeline.
type Session struct {
	summary domain.MatchSummary

	sched   *scheduler.Scheduler
	backend providers.DataProvider
	matcher *feed.Matcher
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	snapshotSub *scheduler.Subscription
	timelineSub *scheduler.Subscription
	feedSub     *scheduler.Subscription
	pushClient  *push.Client

	mu     sync.Mutex
	state  domain.MatchState
	events *push.EventLog
	closed bool
}

type sessionDeps struct {
	sched     *scheduler.Scheduler
	backend   providers.DataProvider
	matcher   *feed.Matcher
	pushCfg   config.PushConfig
	intervals config.IntervalsConfig
	logger    *slog.Logger
	metrics   *metrics.Recorder
	now       func() time.Time
	dial      push.DialFunc // test override, nil for production
}

func newSession(ctx context.Context, summary domain.MatchSummary, deps sessionDeps) *Session {
	s := &Session{
		summary: summary,
		sched:   deps.sched,
		backend: deps.backend,
		matcher: deps.matcher,
		logger:  deps.logger,
		metrics: deps.metrics,
		now:     deps.now,
		events:  push.NewEventLog(),
		state: domain.MatchState{
			MatchID: summary.MatchID,
			Sport:   summary.Sport,
			Phase:   summary.Phase,
			Score:   summary.Score,
		},
	}
	if s.now == nil {
		s.now = time.Now
	}

	matchID := summary.MatchID
	s.snapshotSub = deps.sched.Subscribe(
		fmt.Sprintf("match:%s:state", matchID), s.fetchState, deps.intervals.Snapshot, true)
	s.timelineSub = deps.sched.Subscribe(
		fmt.Sprintf("match:%s:timeline", matchID), s.fetchTimeline, deps.intervals.Timeline, true)
	s.feedSub = deps.sched.Subscribe(
		fmt.Sprintf("match:%s:feed", matchID), s.fetchFeed, deps.intervals.Feed, true)

	if deps.pushCfg.Enabled {
		s.pushClient = push.NewClient(deps.pushCfg, matchID, push.Handlers{
			OnSnapshot: s.onPushSnapshot,
			OnDelta:    s.onPushDelta,
			OnState:    s.onPushState,
		}, deps.logger, deps.metrics)
		if deps.dial != nil {
			s.pushClient.SetDial(deps.dial)
		}
		s.pushClient.Start(ctx)
	}
	return s
}

// Summary returns the scoreboard identity the session was opened with.
func (s *Session) Summary() domain.MatchSummary { return s.summary }

// Effective computes the reconciled view for the given instant. The display
// clock extrapolates from the winning source's observation time, so repeated
// calls between refreshes advance smoothly and a fresh snapshot discards the
// accumulated drift.
func (s *Session) Effective(now time.Time) StateView {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	external := s.externalEntry()

	eff := reconcile.Reconcile(state, external)

	capturedAt := state.ObservedAt
	if external != nil {
		borrowedClock := eff.Source == domain.SourceBackend &&
			state.Clock == nil && eff.Clock != nil
		if eff.Source == domain.SourceExternal || borrowedClock {
			capturedAt = external.ObservedAt
		}
	}

	capture := matchclock.Capture{
		Sport:      s.summary.Sport,
		Phase:      eff.Phase,
		Clock:      eff.Clock,
		Period:     eff.Period,
		StartTime:  s.summary.StartTime,
		CapturedAt: capturedAt,
	}

	return StateView{
		MatchID:       s.summary.MatchID,
		Sport:         s.summary.Sport,
		Effective:     eff,
		DisplayClock:  capture.Display(now),
		Version:       state.Version,
		PushConnected: s.pushClient != nil && s.pushClient.Connected(),
		ObservedAt:    capturedAt,
	}
}

// Timeline returns all known events, polled and pushed, in seq order.
func (s *Session) Timeline() []domain.MatchEvent {
	return s.events.Events()
}

// Close stops polling and the push channel. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.snapshotSub.Stop()
	s.timelineSub.Stop()
	s.feedSub.Stop()
	if s.pushClient != nil {
		s.pushClient.Close()
	}
}

func (s *Session) fetchState(ctx context.Context, key string) (any, error) {
	state, err := s.backend.FetchMatch(ctx, s.summary.MatchID)
	if err != nil {
		return nil, err
	}
	s.applyState(state)
	return state, nil
}

func (s *Session) fetchTimeline(ctx context.Context, key string) (any, error) {
	events, err := s.backend.FetchTimeline(ctx, s.summary.MatchID)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		s.events.Add(ev)
	}
	return events, nil
}

// fetchFeed never fails: a missed cycle stores a nil entry so a provider
// outage degrades to "no supplemental data" instead of a stale match.
func (s *Session) fetchFeed(ctx context.Context, key string) (any, error) {
	entry := s.matcher.FindLiveEntry(ctx, s.summary.HomeName, s.summary.AwayName, s.summary.League)
	return entry, nil
}

func (s *Session) externalEntry() *domain.ExternalEntry {
	entry := s.feedSub.Snapshot()
	ext, _ := entry.Data.(*domain.ExternalEntry)
	return ext
}

// applyState merges a new authoritative snapshot. Version is the gate: an
// older snapshot, e.g. a slow poll racing a push update, never wins.
func (s *Session) applyState(state domain.MatchState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.Version < s.state.Version {
		logging.Info(s.logger, "stale snapshot discarded",
			slog.String(logging.FieldMatchID, s.summary.MatchID),
			"have_version", s.state.Version,
			"got_version", state.Version,
		)
		return
	}
	if state.ObservedAt.IsZero() {
		state.ObservedAt = s.now()
	}
	s.state = state
}

func (s *Session) onPushSnapshot(data push.SnapshotData) {
	s.applyState(data.State)
}

func (s *Session) onPushDelta(data push.DeltaData) {
	s.events.Add(data.Event)
	if data.Score == nil {
		return
	}
	s.mu.Lock()
	s.state.Score = *data.Score
	s.state.ObservedAt = s.now()
	s.mu.Unlock()
}

func (s *Session) onPushState(data push.StateData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data.Version < s.state.Version {
		return
	}
	s.state.Phase = data.Phase
	s.state.Clock = domain.ClonePtr(data.Clock)
	s.state.Period = domain.ClonePtr(data.Period)
	s.state.Version = data.Version
	s.state.ObservedAt = s.now()
}
