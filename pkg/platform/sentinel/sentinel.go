package sentinel

import "errors"

// Sentinel errors for infrastructure and simulation facts. Stores and the
// simulation layers return these (optionally wrapped) so callers can branch
// with errors.Is without depending on concrete implementations.
//
// These represent factual states, not validation failures:
// - ErrNotFound: body does not exist in the registry or snapshot store
// - ErrDuplicateID: a body with the same id is already registered
// - ErrInvalidTimestep: a non-positive or non-finite dt reached the integrator
// - ErrNumericFailure: a body's computed state came back NaN/Inf
// - ErrDeliveryFailed: the broker rejected a record after the retry budget
// - ErrInvalidState: lifecycle operation not legal in the current state
// - ErrQueueFull: bounded publish queue rejected an enqueue (drop policy)
// - ErrUnavailable: broker or sink temporarily unreachable
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrInvalidTimestep = errors.New("invalid timestep")
	ErrNumericFailure  = errors.New("numeric failure")
	ErrDeliveryFailed  = errors.New("delivery failed")
	ErrInvalidState    = errors.New("invalid state")
	ErrQueueFull       = errors.New("queue full")
	ErrUnavailable     = errors.New("unavailable")
)
