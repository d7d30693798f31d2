package matches

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"livematch-service/internal/config"
	"livematch-service/internal/domain"
	"livematch-service/internal/feed"
	"livematch-service/internal/logging"
	"livematch-service/internal/metrics"
	"livematch-service/internal/providers"
	"livematch-service/internal/push"
	"livematch-service/internal/scheduler"
)

// ErrUnknownMatch reports a match id with no open session.
var ErrUnknownMatch = errors.New("unknown match")

// Options wires a Service. Scheduler, Backend, and Matcher are required;
// Now and Dial are test seams.
type Options struct {
	Scheduler *scheduler.Scheduler
	Backend   providers.DataProvider
	Matcher   *feed.Matcher
	Push      config.PushConfig
	Intervals config.IntervalsConfig
	League    string
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
	Now       func() time.Time
	Dial      push.DialFunc
}

// Service tracks one league's scoreboard and keeps a live Session per listed
// match. Sessions open when a match appears on the scoreboard and close when
// it drops off.
type Service struct {
	opts Options
	ctx  context.Context
	now  func() time.Time

	scoreboardSub *scheduler.Subscription

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewService starts scoreboard tracking immediately. ctx bounds the push
// connections of every session the service opens.
func NewService(ctx context.Context, opts Options) *Service {
	s := &Service{
		opts:     opts,
		ctx:      ctx,
		now:      opts.Now,
		sessions: make(map[string]*Session),
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.scoreboardSub = opts.Scheduler.Subscribe(
		fmt.Sprintf("league:%s:scoreboard", opts.League),
		s.fetchScoreboard, opts.Intervals.Scoreboard, true)
	return s
}

// Matches returns the latest scoreboard. Stale data is served during
// provider outages; before the first successful fetch the list is empty.
func (s *Service) Matches() []domain.MatchSummary {
	entry := s.scoreboardSub.Snapshot()
	summaries, _ := entry.Data.([]domain.MatchSummary)
	return summaries
}

// Ready reports whether at least one scoreboard fetch has succeeded.
func (s *Service) Ready() bool {
	entry := s.scoreboardSub.Snapshot()
	return entry.Data != nil
}

// State returns the reconciled view for one open match.
func (s *Service) State(matchID string) (StateView, error) {
	session, ok := s.session(matchID)
	if !ok {
		return StateView{}, ErrUnknownMatch
	}
	return session.Effective(s.now()), nil
}

// Timeline returns the merged, seq-ordered timeline for one open match.
func (s *Service) Timeline(matchID string) ([]domain.MatchEvent, error) {
	session, ok := s.session(matchID)
	if !ok {
		return nil, ErrUnknownMatch
	}
	return session.Timeline(), nil
}

// Close shuts the scoreboard subscription and every session.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	s.scoreboardSub.Stop()
	for _, session := range sessions {
		session.Close()
	}
}

func (s *Service) session(matchID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[matchID]
	return session, ok
}

func (s *Service) fetchScoreboard(ctx context.Context, key string) (any, error) {
	summaries, err := s.opts.Backend.FetchScoreboard(ctx, s.opts.League)
	if err != nil {
		return nil, err
	}
	s.syncSessions(summaries)
	return summaries, nil
}

// syncSessions opens a session per listed match and closes sessions for
// matches that dropped off the scoreboard.
func (s *Service) syncSessions(summaries []domain.MatchSummary) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	listed := make(map[string]bool, len(summaries))
	var opened []string
	for _, summary := range summaries {
		listed[summary.MatchID] = true
		if _, ok := s.sessions[summary.MatchID]; ok {
			continue
		}
		s.sessions[summary.MatchID] = newSession(s.ctx, summary, sessionDeps{
			sched:     s.opts.Scheduler,
			backend:   s.opts.Backend,
			matcher:   s.opts.Matcher,
			pushCfg:   s.opts.Push,
			intervals: s.opts.Intervals,
			logger:    s.opts.Logger,
			metrics:   s.opts.Metrics,
			now:       s.now,
			dial:      s.opts.Dial,
		})
		opened = append(opened, summary.MatchID)
	}

	var dropped []*Session
	for id, session := range s.sessions {
		if !listed[id] {
			dropped = append(dropped, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, id := range opened {
		logging.Info(s.opts.Logger, "match session opened",
			slog.String(logging.FieldMatchID, id),
		)
	}
	for _, session := range dropped {
		logging.Info(s.opts.Logger, "match session closed",
			slog.String(logging.FieldMatchID, session.Summary().MatchID),
		)
		session.Close()
	}
}
