package providers

import (
	"context"

	"livematch-service/internal/domain"
)

// MatchProvider fetches authoritative per-match data from the backend.
type MatchProvider interface {
	FetchMatch(ctx context.Context, matchID string) (domain.MatchState, error)
	FetchTimeline(ctx context.Context, matchID string) ([]domain.MatchEvent, error)
}

// ScoreboardProvider lists the backend's matches for a league.
type ScoreboardProvider interface {
	FetchScoreboard(ctx context.Context, league string) ([]domain.MatchSummary, error)
}

// DataProvider combines the backend capabilities.
type DataProvider interface {
	MatchProvider
	ScoreboardProvider
}

// ExternalEvent is one row of the public provider's schedule listing: just
// enough identity to run the name match. It carries the provider's own event
// id, which is meaningless outside the provider.
type ExternalEvent struct {
	ID       string
	HomeName string
	AwayName string
	League   string
}

// ExternalProvider is the secondary public live-score feed. Both calls are
// unauthenticated, rate limited, and best effort; callers must treat any
// error as "no supplemental data this cycle".
type ExternalProvider interface {
	FetchEvents(ctx context.Context, league string) ([]ExternalEvent, error)
	FetchLiveEntry(ctx context.Context, eventID string) (domain.ExternalEntry, error)
}
