package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Medicine maps to the medicines table (the catalog).
type Medicine struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Form      *string   `db:"form" json:"form,omitempty"`
	Strength  *string   `db:"strength" json:"strength,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Prescription maps to the prescriptions table. At most one exists per
// appointment.
type Prescription struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	Items         []Item    `db:"-" json:"items"`
}

// Item maps to the prescription_medicines join table. Dosage and
// Duration are free-form instructions.
type Item struct {
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	MedicineID     uuid.UUID `db:"medicine_id" json:"medicine_id"`
	Dosage         string    `db:"dosage" json:"dosage"`
	Duration       string    `db:"duration" json:"duration"`
}
