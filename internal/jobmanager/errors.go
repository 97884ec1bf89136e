package jobmanager

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkerNotFound is returned when no worker exists for an id.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrPermissionDenied is returned when the requester is not the
	// owner of the worker. Callers presenting errors to clients should
	// collapse this with ErrWorkerNotFound to avoid id enumeration; it
	// stays distinct here so the server can log the real cause.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidArgument is returned for an empty command or a malformed
	// worker id.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotRemovable is returned by Remove for a worker that has not
	// reached a terminal state.
	ErrNotRemovable = errors.New("worker not in a terminal state")
)

// InvalidStateError is returned when attempting an invalid worker state
// transition.
type InvalidStateError struct {
	from State
	to   State
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("cannot go from %s to %s", e.from, e.to)
}

func NewInvalidStateError(from, to State) InvalidStateError {
	return InvalidStateError{from, to}
}

// SpawnError is returned when the isolation helper could not be
// launched. The worker is left in StateFailed with the same reason.
type SpawnError struct {
	Reason string
}

func (e SpawnError) Error() string {
	return fmt.Sprintf("spawn worker: %s", e.Reason)
}
