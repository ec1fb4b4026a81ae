package appointment

import "github.com/BruksfildServices01/barber-booking-engine/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ===============================
// Validations
// ===============================

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal: completed e cancelled não saem mais do lugar.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Active: ocupa slot na grade.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func CanTransition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return httperr.ErrBusiness(httperr.CodeInvalidTransition)
}

func InitialStatus() Status {
	return StatusPending
}

// ActiveStatuses para filtros de repositório.
func ActiveStatuses() []string {
	return []string{string(StatusPending), string(StatusConfirmed)}
}
