package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists appointments. Create and Update run inside a
// transaction that locks the doctor row and enforces the no-overlap
// rule; both return a ConflictError carrying the blocking windows when
// the requested slot is taken.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment, recheckOverlap bool) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
}
