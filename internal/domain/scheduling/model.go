package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Completed, cancelled and no_show are terminal.
const (
	StatusScheduled = "scheduled"
	StatusCheckedIn = "checked_in"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Appointment maps to the appointments table. The half-open window
// [StartTime, EndTime) must not overlap any other non-cancelled
// appointment of the same doctor.
type Appointment struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	RoomID    *uuid.UUID `db:"room_id" json:"room_id,omitempty"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   time.Time  `db:"end_time" json:"end_time"`
	Status    string     `db:"status" json:"status"`
	Reason    *string    `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// UpdateRequest is a field patch: nil means leave unchanged.
type UpdateRequest struct {
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
	RoomID    *uuid.UUID `json:"room_id,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Status    *string    `json:"status,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
}

// validTransitions holds the allowed status edges. Absent source states
// are terminal.
var validTransitions = map[string][]string{
	StatusScheduled: {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether status may move from one value to
// another. A no-op transition is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status transitions exist.
func IsTerminal(status string) bool {
	return len(validTransitions[status]) == 0
}
