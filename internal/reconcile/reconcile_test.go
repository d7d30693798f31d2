package reconcile

import (
	"testing"

	"livematch-service/internal/domain"
)

func TestNilExternalIsBackendVerbatim(t *testing.T) {
	backend := domain.MatchState{
		MatchID: "m1",
		Phase:   domain.PhaseScheduled,
		Score:   domain.Score{},
		Version: 3,
	}
	got := Reconcile(backend, nil)
	if got.Phase != domain.PhaseScheduled || got.Source != domain.SourceBackend {
		t.Fatalf("got %+v", got)
	}
	if got.Clock != nil || got.Period != nil {
		t.Fatalf("clock/period = %v/%v", got.Clock, got.Period)
	}
}

func TestExternalWinsWhileBackendLags(t *testing.T) {
	backend := domain.MatchState{Phase: domain.PhaseScheduled}
	external := &domain.ExternalEntry{
		Phase:  domain.PhaseLiveFirstHalf,
		Clock:  domain.StringPtr("12:34"),
		Score:  domain.Score{Home: 1, Away: 0},
		IsLive: true,
	}

	got := Reconcile(backend, external)
	if got.Source != domain.SourceExternal {
		t.Fatalf("source = %s", got.Source)
	}
	if !got.Phase.IsLive() || got.Score != (domain.Score{Home: 1, Away: 0}) {
		t.Fatalf("got %+v", got)
	}
	if got.Clock == nil || *got.Clock != "12:34" {
		t.Fatalf("clock = %v", got.Clock)
	}
}

func TestBackendTakesOverOnceLive(t *testing.T) {
	backend := domain.MatchState{
		Phase:   domain.PhaseLiveFirstHalf,
		Clock:   domain.StringPtr("13:00"),
		Score:   domain.Score{Home: 1, Away: 0},
		Version: 8,
	}
	external := &domain.ExternalEntry{
		Phase:  domain.PhaseLiveFirstHalf,
		Clock:  domain.StringPtr("12:50"),
		Score:  domain.Score{Home: 2, Away: 0}, // feed ahead; must not flicker in
		IsLive: true,
	}

	got := Reconcile(backend, external)
	if got.Source != domain.SourceBackend {
		t.Fatalf("source = %s", got.Source)
	}
	if *got.Clock != "13:00" {
		t.Fatalf("clock = %q, backend clock is authoritative when present", *got.Clock)
	}
	if got.Score != (domain.Score{Home: 1, Away: 0}) {
		t.Fatalf("score = %+v", got.Score)
	}
}

func TestExternalClockFillsMissingBackendClock(t *testing.T) {
	backend := domain.MatchState{
		Phase: domain.PhaseLiveFirstHalf,
		Score: domain.Score{Home: 1},
	}
	external := &domain.ExternalEntry{
		Phase:  domain.PhaseLiveFirstHalf,
		Clock:  domain.StringPtr("27:05"),
		Period: domain.StringPtr("1st half"),
		Score:  domain.Score{Home: 1},
		IsLive: true,
	}

	got := Reconcile(backend, external)
	if got.Source != domain.SourceBackend {
		t.Fatalf("source = %s", got.Source)
	}
	if got.Clock == nil || *got.Clock != "27:05" {
		t.Fatalf("clock = %v", got.Clock)
	}
	if got.Period == nil || *got.Period != "1st half" {
		t.Fatalf("period = %v", got.Period)
	}
}

func TestFinishedBackendIsNotResurrected(t *testing.T) {
	backend := domain.MatchState{Phase: domain.PhaseFinished, Score: domain.Score{Home: 2, Away: 1}}
	external := &domain.ExternalEntry{Phase: domain.PhaseLiveSecondHalf, IsLive: true}

	got := Reconcile(backend, external)
	if got.Phase != domain.PhaseFinished || got.Source != domain.SourceBackend {
		t.Fatalf("got %+v", got)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	backend := domain.MatchState{Phase: domain.PhaseScheduled}
	external := &domain.ExternalEntry{
		Phase:  domain.PhaseLive,
		Clock:  domain.StringPtr("01:00"),
		IsLive: true,
	}

	first := Reconcile(backend, external)
	second := Reconcile(backend, external)
	if first.Phase != second.Phase || first.Source != second.Source || first.Score != second.Score {
		t.Fatalf("outputs differ: %+v vs %+v", first, second)
	}
	if (first.Clock == nil) != (second.Clock == nil) || (first.Clock != nil && *first.Clock != *second.Clock) {
		t.Fatal("clock outputs differ")
	}

	// Output pointers are copies; mutating them must not affect later calls.
	*first.Clock = "99:99"
	third := Reconcile(backend, external)
	if *third.Clock != "01:00" {
		t.Fatalf("shared pointer leaked: %q", *third.Clock)
	}
}
