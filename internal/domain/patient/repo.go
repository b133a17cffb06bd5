package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error)
}

type ProviderRepository interface {
	Create(ctx context.Context, pr *InsuranceProvider) error
	GetByID(ctx context.Context, id uuid.UUID) (*InsuranceProvider, error)
	List(ctx context.Context) ([]*InsuranceProvider, error)
	Update(ctx context.Context, pr *InsuranceProvider) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PolicyRepository interface {
	Create(ctx context.Context, pol *InsurancePolicy) error
	GetByID(ctx context.Context, id uuid.UUID) (*InsurancePolicy, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*InsurancePolicy, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
