package push

import (
	"testing"

	"livematch-service/internal/domain"
)

func TestMessageLogDiscardsOldestFirst(t *testing.T) {
	l := NewMessageLog(4)
	for i := 0; i < 10; i++ {
		l.Append(Envelope{Type: TypeState, ConnectionID: string(rune('a' + i))})
	}
	msgs := l.Messages()
	if len(msgs) != 4 {
		t.Fatalf("len = %d, want 4", len(msgs))
	}
	if msgs[0].ConnectionID != "g" || msgs[3].ConnectionID != "j" {
		t.Fatalf("kept wrong window: %q..%q", msgs[0].ConnectionID, msgs[3].ConnectionID)
	}
}

func TestMessageLogDefaultCapacity(t *testing.T) {
	l := NewMessageLog(0)
	for i := 0; i < defaultLogCapacity+5; i++ {
		l.Append(Envelope{Type: TypePong})
	}
	if l.Len() != defaultLogCapacity {
		t.Fatalf("len = %d", l.Len())
	}
}

func TestEventLogDedupAndOrder(t *testing.T) {
	l := NewEventLog()
	if !l.Add(domain.MatchEvent{Seq: 2, Type: "goal"}) {
		t.Fatal("first add rejected")
	}
	if !l.Add(domain.MatchEvent{Seq: 1, Type: "kickoff"}) {
		t.Fatal("out-of-order add rejected")
	}
	if l.Add(domain.MatchEvent{Seq: 2, Type: "goal"}) {
		t.Fatal("duplicate seq accepted")
	}
	if !l.Add(domain.MatchEvent{Seq: 3, Type: "card"}) {
		t.Fatal("third add rejected")
	}

	events := l.Events()
	if len(events) != 3 {
		t.Fatalf("len = %d", len(events))
	}
	for i, want := range []int64{1, 2, 3} {
		if events[i].Seq != want {
			t.Fatalf("events[%d].Seq = %d, want %d", i, events[i].Seq, want)
		}
	}
}
