// Package publish turns tick results into topic-partitioned broker records.
package publish

import (
	"encoding/json"
	"fmt"

	"orrery/internal/sim/body"
)

// SchemaVersion identifies the payload encoding. Consumers must ignore
// unknown fields so the schema can grow without a version bump; the number
// only moves on incompatible changes.
const SchemaVersion = 1

// PositionUpdate is the wire payload for one body at one tick. Transient:
// built, encoded, handed to the broker client and discarded; the broker is
// the durable log.
type PositionUpdate struct {
	SchemaVersion int        `json:"schema_version"`
	ID            string     `json:"id"`
	Kind          body.Kind  `json:"kind"`
	Position      [3]float64 `json:"position"`
	Velocity      [3]float64 `json:"velocity"`
	// Timestamp is simulated time in milliseconds since epoch.
	Timestamp uint64 `json:"timestamp"`
}

// NewUpdate builds the update for a body at the given simulated time.
func NewUpdate(b body.Body, simTime float64) PositionUpdate {
	return PositionUpdate{
		SchemaVersion: SchemaVersion,
		ID:            b.ID,
		Kind:          b.Kind,
		Position:      b.Position.Array(),
		Velocity:      b.Velocity.Array(),
		Timestamp:     TimestampMillis(simTime),
	}
}

// TimestampMillis converts simulated seconds to the wire timestamp.
func TimestampMillis(simTime float64) uint64 {
	if simTime < 0 {
		return 0
	}
	return uint64(simTime * 1000)
}

// Encode serializes the update.
func (u PositionUpdate) Encode() ([]byte, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode update %s: %w", u.ID, err)
	}
	return data, nil
}
