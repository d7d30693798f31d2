// Package matchclock extrapolates a display clock between data refreshes.
// A Capture freezes the last authoritative reading; Display re-derives the
// value for "now" on every tick without ever writing back.
package matchclock

import (
	"strconv"
	"time"

	"livematch-service/internal/domain"
	"livematch-service/internal/timeutil"
)

type direction int

const (
	countUp direction = iota
	countDown
	clockless
)

// clockDirection maps a sport to how its clock moves. Association football
// counts up from period start with no cap (added time). Fixed-period sports
// count down and floor at zero. Inning sports have no clock at all.
func clockDirection(sport domain.Sport) direction {
	switch sport {
	case domain.SportBasketball, domain.SportHockey:
		return countDown
	case domain.SportBaseball:
		return clockless
	}
	return countUp
}

// Capture is the last authoritative clock reading plus everything needed to
// extrapolate from it. Build a fresh Capture whenever reconciled state
// changes; accumulated drift is discarded at that point.
type Capture struct {
	Sport      domain.Sport
	Phase      domain.Phase
	Clock      *string
	Period     *string
	StartTime  time.Time
	CapturedAt time.Time
}

// Display returns the value to show at the given instant.
func (c Capture) Display(now time.Time) string {
	if clockDirection(c.Sport) == clockless {
		return c.periodLabel()
	}

	if c.Clock != nil {
		base, ok := timeutil.ParseMinSec(*c.Clock)
		if !ok {
			// Not a running clock, e.g. "HT" or "90'+4". Show it as-is.
			return *c.Clock
		}
		elapsed := int(now.Sub(c.CapturedAt) / time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
		if clockDirection(c.Sport) == countDown {
			remaining := base - elapsed
			if remaining < 0 {
				remaining = 0
			}
			return timeutil.FormatMinSec(remaining)
		}
		return timeutil.FormatMinSec(base + elapsed)
	}

	// No authoritative clock yet. A live match with a known kickoff still
	// gets a moving clock from the scheduled start.
	if c.Phase.IsLive() && !c.StartTime.IsZero() && clockDirection(c.Sport) == countUp {
		sinceStart := int(now.Sub(c.StartTime) / time.Second)
		if sinceStart >= 0 {
			return timeutil.FormatMinSec(sinceStart)
		}
	}
	return c.periodLabel()
}

// periodLabel renders the static label for clockless display: an ordinal
// inning for bare numbers, the period text otherwise, the phase as a last
// resort.
func (c Capture) periodLabel() string {
	if c.Period != nil && *c.Period != "" {
		if n, err := strconv.Atoi(*c.Period); err == nil && n > 0 {
			return timeutil.Ordinal(n)
		}
		return *c.Period
	}
	return string(c.Phase)
}
