package matchclock

import (
	"fmt"
	"testing"
	"time"

	"livematch-service/internal/domain"
)

func TestCountUpExtrapolates(t *testing.T) {
	captured := time.Unix(1_700_000_000, 0)
	c := Capture{
		Sport:      domain.SportFootball,
		Phase:      domain.PhaseLiveFirstHalf,
		Clock:      domain.StringPtr("12:34"),
		CapturedAt: captured,
	}

	if got := c.Display(captured); got != "12:34" {
		t.Fatalf("at capture = %q", got)
	}
	if got := c.Display(captured.Add(26 * time.Second)); got != "13:00" {
		t.Fatalf("after 26s = %q", got)
	}
	// Uncapped past the nominal period length, into added time.
	c.Clock = domain.StringPtr("44:50")
	if got := c.Display(captured.Add(3 * time.Minute)); got != "47:50" {
		t.Fatalf("added time = %q", got)
	}
}

func TestCountUpMonotonicity(t *testing.T) {
	captured := time.Unix(1_700_000_000, 0)
	c := Capture{
		Sport:      domain.SportFootball,
		Phase:      domain.PhaseLiveSecondHalf,
		Clock:      domain.StringPtr("50:00"),
		CapturedAt: captured,
	}

	prev := -1
	for delta := 0; delta <= 120; delta += 7 {
		got := c.Display(captured.Add(time.Duration(delta) * time.Second))
		var m, s int
		if _, err := fmt.Sscanf(got, "%d:%d", &m, &s); err != nil {
			t.Fatalf("unparseable display %q", got)
		}
		total := m*60 + s
		if total != 50*60+delta {
			t.Fatalf("at +%ds display = %q, want exactly base+delta", delta, got)
		}
		if total < prev {
			t.Fatalf("clock went backwards: %d -> %d", prev, total)
		}
		prev = total
	}
}

func TestCountDownFloorsAtZero(t *testing.T) {
	captured := time.Unix(1_700_000_000, 0)
	c := Capture{
		Sport:      domain.SportBasketball,
		Phase:      domain.PhaseLive,
		Clock:      domain.StringPtr("0:30"),
		CapturedAt: captured,
	}

	if got := c.Display(captured.Add(10 * time.Second)); got != "0:20" {
		t.Fatalf("after 10s = %q", got)
	}
	if got := c.Display(captured.Add(2 * time.Minute)); got != "0:00" {
		t.Fatalf("past zero = %q", got)
	}
}

func TestClocklessSportShowsOrdinalInning(t *testing.T) {
	c := Capture{
		Sport:  domain.SportBaseball,
		Phase:  domain.PhaseLive,
		Period: domain.StringPtr("3"),
	}
	if got := c.Display(time.Now()); got != "3rd" {
		t.Fatalf("display = %q", got)
	}

	c.Period = domain.StringPtr("Top 7th")
	if got := c.Display(time.Now()); got != "Top 7th" {
		t.Fatalf("display = %q", got)
	}
}

func TestKickoffFallback(t *testing.T) {
	kickoff := time.Unix(1_700_000_000, 0)
	c := Capture{
		Sport:     domain.SportFootball,
		Phase:     domain.PhaseLive,
		StartTime: kickoff,
	}

	if got := c.Display(kickoff.Add(95 * time.Second)); got != "1:35" {
		t.Fatalf("fallback display = %q", got)
	}
	// Before kickoff there is nothing sensible to extrapolate.
	if got := c.Display(kickoff.Add(-time.Minute)); got != string(domain.PhaseLive) {
		t.Fatalf("pre-kickoff display = %q", got)
	}
}

func TestNonClockValuePassesThrough(t *testing.T) {
	c := Capture{
		Sport: domain.SportFootball,
		Phase: domain.PhaseHalftime,
		Clock: domain.StringPtr("HT"),
	}
	if got := c.Display(time.Now()); got != "HT" {
		t.Fatalf("display = %q", got)
	}
}

func TestRecaptureDiscardsDrift(t *testing.T) {
	captured := time.Unix(1_700_000_000, 0)
	first := Capture{
		Sport:      domain.SportFootball,
		Phase:      domain.PhaseLiveFirstHalf,
		Clock:      domain.StringPtr("10:00"),
		CapturedAt: captured,
	}
	// Local extrapolation ran 40s ahead; a fresh authoritative reading says
	// only 30s really passed. The new capture wins.
	second := Capture{
		Sport:      domain.SportFootball,
		Phase:      domain.PhaseLiveFirstHalf,
		Clock:      domain.StringPtr("10:30"),
		CapturedAt: captured.Add(40 * time.Second),
	}

	at := captured.Add(45 * time.Second)
	if got := first.Display(at); got != "10:45" {
		t.Fatalf("stale capture = %q", got)
	}
	if got := second.Display(at); got != "10:35" {
		t.Fatalf("fresh capture = %q", got)
	}
}
