// Package state keeps the latest published position per body so read-side
// consumers (the ops API, an optional Redis mirror) can answer "where is
// everything now" without replaying the topic. It holds no history; the
// broker remains the durable log.
package state

import (
	"context"

	"orrery/internal/publish"
)

// Store holds the most recent PositionUpdate per body id.
type Store interface {
	SetLatest(ctx context.Context, u publish.PositionUpdate) error
	Latest(ctx context.Context, id string) (publish.PositionUpdate, error)
	List(ctx context.Context) ([]publish.PositionUpdate, error)
}
