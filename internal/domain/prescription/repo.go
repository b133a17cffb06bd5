package prescription

import (
	"context"

	"github.com/google/uuid"
)

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Medicine, int, error)
	Update(ctx context.Context, m *Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddItem(ctx context.Context, item *Item) error
	RemoveItem(ctx context.Context, prescriptionID, medicineID uuid.UUID) error
}
