package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// Recorder writes entity-level audit entries. Satisfied by the audit
// service.
type Recorder interface {
	Record(ctx context.Context, action, entity, entityID string, detail interface{})
}

type Service struct {
	patients  Repository
	providers ProviderRepository
	policies  PolicyRepository
	audit     Recorder
}

func NewService(patients Repository, providers ProviderRepository, policies PolicyRepository, audit Recorder) *Service {
	return &Service{patients: patients, providers: providers, policies: policies, audit: audit}
}

// -- Patients --

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.FirstName == "" {
		return apperr.Validation("first_name is required")
	}
	if p.LastName == "" {
		return apperr.Validation("last_name is required")
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return err
	}
	s.audit.Record(ctx, "patient.create", "patient", p.ID.String(), nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, params, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p *Patient) (*Patient, error) {
	existing, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.FirstName != "" {
		existing.FirstName = p.FirstName
	}
	if p.LastName != "" {
		existing.LastName = p.LastName
	}
	if p.NationalID != nil {
		existing.NationalID = p.NationalID
	}
	if p.BirthDate != nil {
		existing.BirthDate = p.BirthDate
	}
	if p.Gender != nil {
		existing.Gender = p.Gender
	}
	if p.Phone != nil {
		existing.Phone = p.Phone
	}
	if p.Email != nil {
		existing.Email = p.Email
	}
	if p.AddressLine != nil {
		existing.AddressLine = p.AddressLine
	}
	if p.City != nil {
		existing.City = p.City
	}

	if err := s.patients.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "patient.update", "patient", existing.ID.String(), nil)
	return existing, nil
}

// Delete removes a patient. Appointments, policies, prescriptions and
// invoices follow through the FK cascade chain.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.patients.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "patient.delete", "patient", id.String(), nil)
	return nil
}

// -- Insurance Providers --

func (s *Service) CreateProvider(ctx context.Context, pr *InsuranceProvider) error {
	if pr.Name == "" {
		return apperr.Validation("name is required")
	}
	return s.providers.Create(ctx, pr)
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*InsuranceProvider, error) {
	return s.providers.GetByID(ctx, id)
}

func (s *Service) ListProviders(ctx context.Context) ([]*InsuranceProvider, error) {
	return s.providers.List(ctx)
}

func (s *Service) UpdateProvider(ctx context.Context, id uuid.UUID, pr *InsuranceProvider) (*InsuranceProvider, error) {
	existing, err := s.providers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pr.Name != "" {
		existing.Name = pr.Name
	}
	if pr.Phone != nil {
		existing.Phone = pr.Phone
	}
	if err := s.providers.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	return s.providers.Delete(ctx, id)
}

// -- Insurance Policies --

func (s *Service) AddPolicy(ctx context.Context, patientID uuid.UUID, pol *InsurancePolicy) error {
	if pol.PolicyNumber == "" {
		return apperr.Validation("policy_number is required")
	}
	if pol.ProviderID == uuid.Nil {
		return apperr.Validation("provider_id is required")
	}
	if pol.ValidFrom != nil && pol.ValidTo != nil && !pol.ValidTo.After(*pol.ValidFrom) {
		return apperr.Validation("valid_to must be after valid_from")
	}
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return err
	}
	if _, err := s.providers.GetByID(ctx, pol.ProviderID); err != nil {
		return err
	}

	pol.PatientID = patientID
	if err := s.policies.Create(ctx, pol); err != nil {
		return err
	}
	s.audit.Record(ctx, "policy.create", "insurance_policy", pol.ID.String(),
		map[string]string{"patient_id": patientID.String(), "policy_number": pol.PolicyNumber})
	return nil
}

func (s *Service) ListPolicies(ctx context.Context, patientID uuid.UUID) ([]*InsurancePolicy, error) {
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.policies.ListByPatient(ctx, patientID)
}

func (s *Service) RemovePolicy(ctx context.Context, patientID, policyID uuid.UUID) error {
	pol, err := s.policies.GetByID(ctx, policyID)
	if err != nil {
		return err
	}
	if pol.PatientID != patientID {
		return apperr.NotFound("insurance policy", policyID.String())
	}
	if err := s.policies.Delete(ctx, policyID); err != nil {
		return err
	}
	s.audit.Record(ctx, "policy.delete", "insurance_policy", policyID.String(), nil)
	return nil
}
