package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error)
	AddPayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)
}
