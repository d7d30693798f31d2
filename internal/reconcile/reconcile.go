// Package reconcile merges the authoritative backend state with the
// best-effort external feed entry into the single view shown to the user.
package reconcile

import "livematch-service/internal/domain"

// Reconcile is a pure function: the same inputs always yield the same
// output, and no state is kept between calls.
//
// Precedence: the backend is authoritative. The external entry wins only
// when the backend still shows a non-live phase while the feed already sees
// the match live or finished, which covers the window where the backend's
// phase sync lags kickoff. Once both sources agree the match is live the
// backend keeps the score, and only a missing backend clock is filled from
// the feed.
func Reconcile(backend domain.MatchState, external *domain.ExternalEntry) domain.EffectiveState {
	effective := domain.EffectiveState{
		Phase:  backend.Phase,
		Clock:  domain.ClonePtr(backend.Clock),
		Period: domain.ClonePtr(backend.Period),
		Score:  backend.Score,
		Source: domain.SourceBackend,
	}
	if external == nil {
		return effective
	}

	backendLive := backend.Phase.IsLive()
	if !backendLive && !backend.Phase.IsFinished() && (external.IsLive || external.IsFinished) {
		return domain.EffectiveState{
			Phase:  external.Phase,
			Clock:  domain.ClonePtr(external.Clock),
			Period: domain.ClonePtr(external.Period),
			Score:  external.Score,
			Source: domain.SourceExternal,
		}
	}

	// Both live: backend score is authoritative, two independently polled
	// scores must never flicker against each other. Borrow the feed's clock
	// only when the backend has none.
	if backendLive && external.IsLive && backend.Clock == nil {
		effective.Clock = domain.ClonePtr(external.Clock)
		if backend.Period == nil {
			effective.Period = domain.ClonePtr(external.Period)
		}
	}
	return effective
}
