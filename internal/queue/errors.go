package queue

import "errors"

// Closed error taxonomy for queue operations. Callers distinguish cases
// with errors.Is; wrapped messages carry the detail.
var (
	// ErrValidation covers unknown specializations, unknown patients and
	// malformed input. The queue state is untouched when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrInactiveSpecialization rejects intake for a specialization whose
	// active flag is off.
	ErrInactiveSpecialization = errors.New("specialization is not active")

	// ErrCapacityExceeded rejects intake when the waiting count already
	// equals the specialization's capacity.
	ErrCapacityExceeded = errors.New("queue capacity exceeded")

	// ErrEmptyQueue means serve-next found no waiting entries.
	ErrEmptyQueue = errors.New("queue is empty")

	// ErrEntryNotFound means the target entry is absent or already
	// served/removed. Terminal entries are logically gone from the line.
	ErrEntryNotFound = errors.New("queue entry not found")

	// ErrPersistence means the durable write failed or timed out. The
	// in-memory mutation has been rolled back before it is returned.
	ErrPersistence = errors.New("persistence failed")
)
