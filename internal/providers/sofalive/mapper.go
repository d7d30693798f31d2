package sofalive

import (
	"strings"
	"time"

	"livematch-service/internal/domain"
	"livematch-service/internal/timeutil"
)

// mapPhase folds the provider's status vocabulary into the internal phase
// set. Unknown in-progress descriptions collapse to the generic live phase.
func mapPhase(status eventStatus) domain.Phase {
	switch status.Type {
	case statusNotStarted:
		return domain.PhaseScheduled
	case statusFinished:
		return domain.PhaseFinished
	case statusPostponed:
		return domain.PhasePostponed
	case statusCanceled:
		return domain.PhaseCanceled
	case statusInProgress:
		switch strings.ToLower(status.Description) {
		case descFirstHalf:
			return domain.PhaseLiveFirstHalf
		case descHalftime:
			return domain.PhaseHalftime
		case descSecondHalf:
			return domain.PhaseLiveSecondHalf
		case descExtraTime, descOvertime:
			return domain.PhaseExtraTime
		}
		return domain.PhaseLive
	}
	return domain.PhaseScheduled
}

// mapEntry normalizes one provider event into the internal external entry.
// An event with no running clock keeps Clock nil and carries the provider's
// phase description as the period label.
func mapEntry(ev liveEvent, observedAt time.Time) domain.ExternalEntry {
	phase := mapPhase(ev.Status)
	entry := domain.ExternalEntry{
		Phase:      phase,
		Score:      domain.Score{Home: ev.HomeScore.Current, Away: ev.AwayScore.Current},
		IsLive:     phase.IsLive(),
		IsFinished: phase.IsFinished(),
		ObservedAt: observedAt,
	}
	if ev.Time.Played > 0 {
		entry.Clock = domain.StringPtr(timeutil.FormatMinSec(ev.Time.Played))
	}
	if ev.Status.Description != "" {
		entry.Period = domain.StringPtr(ev.Status.Description)
	}
	return entry
}

// pickName prefers the full display name; some events carry only shortName.
func pickName(c competitor) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ShortName
}
