package push

import (
	"encoding/json"
	"time"

	"livematch-service/internal/domain"
)

// Message tags carried in Envelope.Type. The set is fixed; anything else is
// dropped and logged, never fatal.
const (
	TypeWelcome  = "welcome"
	TypeSnapshot = "snapshot"
	TypeDelta    = "delta"
	TypeState    = "state"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeError    = "error"
)

// Envelope is the wire frame for every push message. Data holds the
// type-specific payload and is decoded lazily against the tag.
type Envelope struct {
	Type         string          `json:"type"`
	ConnectionID string          `json:"connection_id,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	Error        string          `json:"error,omitempty"`
	TS           time.Time       `json:"ts,omitempty"`
}

// SnapshotData replaces the full match state.
type SnapshotData struct {
	State domain.MatchState `json:"state"`
}

// DeltaData carries one timeline event and an optional score update. The
// event's Seq is authoritative for ordering; transport order is not.
type DeltaData struct {
	Event domain.MatchEvent `json:"event"`
	Score *domain.Score     `json:"score,omitempty"`
}

// StateData is a phase/clock-only update, cheaper than a full snapshot.
type StateData struct {
	Phase   domain.Phase `json:"phase"`
	Clock   *string      `json:"clock,omitempty"`
	Period  *string      `json:"period,omitempty"`
	Version int64        `json:"version"`
}
