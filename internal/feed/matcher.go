package feed

import (
	"context"
	"log/slog"

	"livematch-service/internal/domain"
	"livematch-service/internal/logging"
	"livematch-service/internal/metrics"
	"livematch-service/internal/providers"
)

// Matcher locates a match's counterpart in the public provider's live feed
// by team names. The correlation is recomputed from scratch every cycle and
// never cached; a provider outage or ambiguous listing just means no
// supplemental entry for that cycle.
type Matcher struct {
	provider providers.ExternalProvider
	logger   *slog.Logger
	metrics  *metrics.Recorder
}

func NewMatcher(provider providers.ExternalProvider, logger *slog.Logger, recorder *metrics.Recorder) *Matcher {
	return &Matcher{provider: provider, logger: logger, metrics: recorder}
}

// FindLiveEntry returns the normalized live entry for the provider event
// whose competitors match both team names, or nil when zero or more than one
// event qualifies, or when any provider call fails. It never returns an
// error: the feed is supplemental and must not degrade the primary display.
func (m *Matcher) FindLiveEntry(ctx context.Context, homeName, awayName, league string) *domain.ExternalEntry {
	if m == nil || m.provider == nil {
		return nil
	}

	events, err := m.provider.FetchEvents(ctx, league)
	if err != nil {
		logging.Warn(m.logger, "external event list failed",
			slog.String(logging.FieldProvider, "external"),
			"error", err,
		)
		m.metrics.RecordMatcherCycle(false, false)
		return nil
	}

	var matched []providers.ExternalEvent
	for _, ev := range events {
		if eventMatches(ev, homeName, awayName) {
			matched = append(matched, ev)
		}
	}
	if len(matched) != 1 {
		// Zero means not listed; more than one means we cannot tell which is
		// ours, and guessing risks showing another match's score.
		m.metrics.RecordMatcherCycle(false, len(matched) > 1)
		if len(matched) > 1 {
			logging.Warn(m.logger, "ambiguous external match",
				slog.Int(logging.FieldCount, len(matched)),
				"home", homeName,
				"away", awayName,
			)
		}
		return nil
	}

	entry, err := m.provider.FetchLiveEntry(ctx, matched[0].ID)
	if err != nil {
		logging.Warn(m.logger, "external event detail failed",
			slog.String(logging.FieldProvider, "external"),
			"error", err,
		)
		m.metrics.RecordMatcherCycle(false, false)
		return nil
	}
	m.metrics.RecordMatcherCycle(true, false)
	return &entry
}

// eventMatches requires both names to match distinct provider competitors.
// Provider listings occasionally swap home and away, so both orientations
// are accepted.
func eventMatches(ev providers.ExternalEvent, homeName, awayName string) bool {
	if namesMatch(homeName, ev.HomeName) && namesMatch(awayName, ev.AwayName) {
		return true
	}
	return namesMatch(homeName, ev.AwayName) && namesMatch(awayName, ev.HomeName)
}
