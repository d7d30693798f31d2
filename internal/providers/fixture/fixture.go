// Package fixture provides a deterministic in-process provider for local
// development and tests. It simulates one football match that kicks off
// shortly after startup and plays out in accelerated time.
package fixture

import (
	"context"
	"time"

	"livematch-service/internal/domain"
	"livematch-service/internal/providers"
	"livematch-service/internal/timeutil"
)

const (
	MatchID   = "fixture-1"
	EventID   = "900001"
	homeName  = "Arsenal FC"
	awayName  = "Chelsea FC"
	leagueID  = "premier-league"
	kickoffIn = 30 * time.Second
	// One simulated match minute passes every wall-clock second.
	timeScale = 60
)

// Provider serves scripted match data. It implements both the backend
// provider surface and the external provider surface so a local run can
// exercise the full reconciliation path against one process.
type Provider struct {
	start time.Time
	now   func() time.Time
}

func New() *Provider {
	return &Provider{start: time.Now(), now: time.Now}
}

// NewAt pins the simulation start and clock, for tests.
func NewAt(start time.Time, now func() time.Time) *Provider {
	return &Provider{start: start, now: now}
}

func (p *Provider) FetchScoreboard(ctx context.Context, league string) ([]domain.MatchSummary, error) {
	state, _ := p.FetchMatch(ctx, MatchID)
	return []domain.MatchSummary{{
		MatchID:   MatchID,
		League:    leagueID,
		Sport:     domain.SportFootball,
		HomeName:  homeName,
		AwayName:  awayName,
		StartTime: p.start.Add(kickoffIn),
		Phase:     state.Phase,
		Score:     state.Score,
	}}, nil
}

func (p *Provider) FetchMatch(ctx context.Context, matchID string) (domain.MatchState, error) {
	if matchID != MatchID {
		return domain.MatchState{}, providers.ErrProviderUnavailable
	}

	now := p.now()
	minute := p.matchMinute(now)
	state := domain.MatchState{
		MatchID:    MatchID,
		Sport:      domain.SportFootball,
		Version:    int64(now.Sub(p.start) / time.Second),
		ObservedAt: now,
	}

	switch {
	case minute < 0:
		state.Phase = domain.PhaseScheduled
	case minute < 45:
		state.Phase = domain.PhaseLiveFirstHalf
		state.Clock = domain.StringPtr(timeutil.FormatMinSec(minute * 60))
		state.Period = domain.StringPtr("1st half")
	case minute < 47:
		state.Phase = domain.PhaseHalftime
		state.Period = domain.StringPtr("Halftime")
	case minute < 92:
		state.Phase = domain.PhaseLiveSecondHalf
		state.Clock = domain.StringPtr(timeutil.FormatMinSec((minute - 2) * 60))
		state.Period = domain.StringPtr("2nd half")
	default:
		state.Phase = domain.PhaseFinished
	}
	state.Score = scoreAt(minute)
	return state, nil
}

func (p *Provider) FetchTimeline(ctx context.Context, matchID string) ([]domain.MatchEvent, error) {
	if matchID != MatchID {
		return nil, providers.ErrProviderUnavailable
	}
	minute := p.matchMinute(p.now())
	var events []domain.MatchEvent
	for _, g := range goals {
		if minute >= g.minute {
			score := scoreAt(g.minute)
			events = append(events, domain.MatchEvent{
				Seq:    int64(len(events) + 1),
				Type:   "goal",
				Minute: g.minute,
				Team:   g.team,
				Player: g.player,
				Score:  &score,
			})
		}
	}
	return events, nil
}

func (p *Provider) FetchEvents(ctx context.Context, league string) ([]providers.ExternalEvent, error) {
	return []providers.ExternalEvent{{
		ID:       EventID,
		HomeName: "Arsenal",
		AwayName: "Chelsea",
		League:   leagueID,
	}}, nil
}

func (p *Provider) FetchLiveEntry(ctx context.Context, eventID string) (domain.ExternalEntry, error) {
	if eventID != EventID {
		return domain.ExternalEntry{}, providers.ErrProviderUnavailable
	}
	state, err := p.FetchMatch(ctx, MatchID)
	if err != nil {
		return domain.ExternalEntry{}, err
	}
	return domain.ExternalEntry{
		Phase:      state.Phase,
		Clock:      domain.ClonePtr(state.Clock),
		Period:     domain.ClonePtr(state.Period),
		Score:      state.Score,
		IsLive:     state.Phase.IsLive(),
		IsFinished: state.Phase.IsFinished(),
		ObservedAt: state.ObservedAt,
	}, nil
}

// matchMinute is the simulated minute; negative before kickoff.
func (p *Provider) matchMinute(now time.Time) int {
	sinceKickoff := now.Sub(p.start.Add(kickoffIn))
	if sinceKickoff < 0 {
		return -1
	}
	return int(sinceKickoff/time.Second) * timeScale / 60
}

type goal struct {
	minute int
	team   string
	player string
}

var goals = []goal{
	{minute: 12, team: "home", player: "Saka"},
	{minute: 58, team: "away", player: "Palmer"},
	{minute: 81, team: "home", player: "Havertz"},
}

func scoreAt(minute int) domain.Score {
	var s domain.Score
	for _, g := range goals {
		if minute >= g.minute {
			if g.team == "home" {
				s.Home++
			} else {
				s.Away++
			}
		}
	}
	return s
}
