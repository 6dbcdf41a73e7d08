package queue

import (
	"fmt"
	"time"
)

// Priority classifies how urgently a waiting patient must be seen.
// Higher values are served first.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityUrgent
	PrioritySuperUrgent
)

func (p Priority) Valid() bool {
	return p >= PriorityNormal && p <= PrioritySuperUrgent
}

func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityUrgent:
		return "urgent"
	case PrioritySuperUrgent:
		return "super_urgent"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// ParsePriority converts the wire representation back to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "normal":
		return PriorityNormal, nil
	case "urgent":
		return PriorityUrgent, nil
	case "super_urgent":
		return PrioritySuperUrgent, nil
	}
	return 0, fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
}

// State is the lifecycle position of a queue entry. Transitions are
// one-way: waiting entries become served or removed, never waiting again.
type State string

const (
	StateWaiting State = "waiting"
	StateServed  State = "served"
	StateRemoved State = "removed"
)

// Entry is one patient waiting (or formerly waiting) in one
// specialization's line.
type Entry struct {
	ID               string     `json:"id"`
	PatientID        int64      `json:"patient_id"`
	SpecializationID int64      `json:"specialization_id"`
	TicketCode       string     `json:"ticket_code,omitempty"`
	Priority         Priority   `json:"-"`
	State            State      `json:"state"`
	JoinedAt         time.Time  `json:"joined_at"`
	ServedAt         *time.Time `json:"served_at,omitempty"`
	RemovedAt        *time.Time `json:"removed_at,omitempty"`
	RemovalReason    string     `json:"removal_reason,omitempty"`
}

// WaitTime reports how long the entry has waited: until it was served
// for terminal entries, until now for waiting ones.
func (e Entry) WaitTime(now time.Time) time.Duration {
	if e.ServedAt != nil {
		return e.ServedAt.Sub(e.JoinedAt)
	}
	if e.RemovedAt != nil {
		return e.RemovedAt.Sub(e.JoinedAt)
	}
	return now.Sub(e.JoinedAt)
}
