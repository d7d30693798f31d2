package domain

import "time"

// Sport identifies the rules family a match belongs to. It drives clock
// direction and period labeling, nothing else.
type Sport string

const (
	SportFootball   Sport = "FOOTBALL"
	SportBasketball Sport = "BASKETBALL"
	SportHockey     Sport = "HOCKEY"
	SportBaseball   Sport = "BASEBALL"
)

// Phase mirrors the shared contract for match lifecycle states.
type Phase string

const (
	PhaseScheduled      Phase = "SCHEDULED"
	PhaseLive           Phase = "LIVE"
	PhaseLiveFirstHalf  Phase = "LIVE_FIRST_HALF"
	PhaseHalftime       Phase = "HALFTIME"
	PhaseLiveSecondHalf Phase = "LIVE_SECOND_HALF"
	PhaseExtraTime      Phase = "EXTRA_TIME"
	PhaseFinished       Phase = "FINISHED"
	PhasePostponed      Phase = "POSTPONED"
	PhaseCanceled       Phase = "CANCELED"
)

// IsLive reports whether the phase describes a match in progress.
func (p Phase) IsLive() bool {
	switch p {
	case PhaseLive, PhaseLiveFirstHalf, PhaseHalftime, PhaseLiveSecondHalf, PhaseExtraTime:
		return true
	}
	return false
}

// IsFinished reports whether the match has concluded.
func (p Phase) IsFinished() bool {
	return p == PhaseFinished
}

// Score captures home and away points.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// MatchState is the authoritative backend view of one match. Version is a
// monotonically non-decreasing integer supplied by the backend; a snapshot
// with a lower version than the one already held must never replace it.
type MatchState struct {
	MatchID    string    `json:"matchId"`
	Sport      Sport     `json:"sport"`
	Phase      Phase     `json:"phase"`
	Score      Score     `json:"score"`
	Clock      *string   `json:"clock,omitempty"`
	Period     *string   `json:"period,omitempty"`
	Version    int64     `json:"version"`
	ObservedAt time.Time `json:"observedAt"`
}

// ExternalEntry is the normalized view of a secondary provider's live event.
// It shares no identifier with MatchState; correlation happens by name match
// once per poll cycle and is never cached across cycles.
type ExternalEntry struct {
	Phase      Phase     `json:"phase"`
	Clock      *string   `json:"clock,omitempty"`
	Period     *string   `json:"period,omitempty"`
	Score      Score     `json:"score"`
	IsLive     bool      `json:"isLive"`
	IsFinished bool      `json:"isFinished"`
	ObservedAt time.Time `json:"observedAt"`
}

// Source names which feed an effective state was derived from.
type Source string

const (
	SourceBackend  Source = "backend"
	SourceExternal Source = "external"
)

// EffectiveState is the single reconciled view shown to the user. It is
// recomputed on every read and never persisted.
type EffectiveState struct {
	Phase  Phase   `json:"phase"`
	Clock  *string `json:"clock,omitempty"`
	Period *string `json:"period,omitempty"`
	Score  Score   `json:"score"`
	Source Source  `json:"source"`
}

// MatchEvent is one timeline entry. Seq is authoritative for ordering and
// deduplication; transport arrival order is not.
type MatchEvent struct {
	Seq    int64  `json:"seq"`
	Type   string `json:"type"`
	Minute int    `json:"minute,omitempty"`
	Team   string `json:"team,omitempty"`
	Player string `json:"player,omitempty"`
	Score  *Score `json:"score,omitempty"`
}

// MatchSummary is one scoreboard row: enough identity to open a session and
// to run the external name match.
type MatchSummary struct {
	MatchID   string    `json:"matchId"`
	League    string    `json:"league"`
	Sport     Sport     `json:"sport"`
	HomeName  string    `json:"homeName"`
	AwayName  string    `json:"awayName"`
	StartTime time.Time `json:"startTime"`
	Phase     Phase     `json:"phase"`
	Score     Score     `json:"score"`
}

// ClonePtr returns a copy of the pointed-to string, or nil.
func ClonePtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

// StringPtr returns a pointer to v; convenience for literals.
func StringPtr(v string) *string {
	return &v
}
