package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if p.NationalID != nil {
		for _, existing := range m.patients {
			if existing.NationalID != nil && *existing.NationalID == *p.NationalID {
				return apperr.Conflict("duplicate value for national_id")
			}
		}
	}
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient", id.String())
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return apperr.NotFound("patient", p.ID.String())
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return apperr.NotFound("patient", id.String())
	}
	delete(m.patients, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, _ map[string]string, _, _ int) ([]*Patient, int, error) {
	out := make([]*Patient, 0, len(m.patients))
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, len(out), nil
}

type mockProviderRepo struct {
	providers map[uuid.UUID]*InsuranceProvider
}

func newMockProviderRepo() *mockProviderRepo {
	return &mockProviderRepo{providers: make(map[uuid.UUID]*InsuranceProvider)}
}

func (m *mockProviderRepo) Create(_ context.Context, pr *InsuranceProvider) error {
	for _, existing := range m.providers {
		if existing.Name == pr.Name {
			return apperr.Conflict("duplicate value for name")
		}
	}
	pr.ID = uuid.New()
	m.providers[pr.ID] = pr
	return nil
}

func (m *mockProviderRepo) GetByID(_ context.Context, id uuid.UUID) (*InsuranceProvider, error) {
	pr, ok := m.providers[id]
	if !ok {
		return nil, apperr.NotFound("insurance provider", id.String())
	}
	return pr, nil
}

func (m *mockProviderRepo) List(_ context.Context) ([]*InsuranceProvider, error) {
	out := make([]*InsuranceProvider, 0, len(m.providers))
	for _, pr := range m.providers {
		out = append(out, pr)
	}
	return out, nil
}

func (m *mockProviderRepo) Update(_ context.Context, pr *InsuranceProvider) error {
	if _, ok := m.providers[pr.ID]; !ok {
		return apperr.NotFound("insurance provider", pr.ID.String())
	}
	m.providers[pr.ID] = pr
	return nil
}

func (m *mockProviderRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.providers[id]; !ok {
		return apperr.NotFound("insurance provider", id.String())
	}
	delete(m.providers, id)
	return nil
}

type mockPolicyRepo struct {
	policies map[uuid.UUID]*InsurancePolicy
}

func newMockPolicyRepo() *mockPolicyRepo {
	return &mockPolicyRepo{policies: make(map[uuid.UUID]*InsurancePolicy)}
}

func (m *mockPolicyRepo) Create(_ context.Context, pol *InsurancePolicy) error {
	for _, existing := range m.policies {
		if existing.ProviderID == pol.ProviderID && existing.PolicyNumber == pol.PolicyNumber {
			return apperr.Conflict("duplicate value for policy_number")
		}
	}
	pol.ID = uuid.New()
	m.policies[pol.ID] = pol
	return nil
}

func (m *mockPolicyRepo) GetByID(_ context.Context, id uuid.UUID) (*InsurancePolicy, error) {
	pol, ok := m.policies[id]
	if !ok {
		return nil, apperr.NotFound("insurance policy", id.String())
	}
	return pol, nil
}

func (m *mockPolicyRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*InsurancePolicy, error) {
	var out []*InsurancePolicy
	for _, pol := range m.policies {
		if pol.PatientID == patientID {
			out = append(out, pol)
		}
	}
	return out, nil
}

func (m *mockPolicyRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.policies[id]; !ok {
		return apperr.NotFound("insurance policy", id.String())
	}
	delete(m.policies, id)
	return nil
}

type nopRecorder struct{}

func (nopRecorder) Record(_ context.Context, _, _, _ string, _ interface{}) {}

func newTestService() (*Service, *mockRepo, *mockProviderRepo, *mockPolicyRepo) {
	patients := newMockRepo()
	providers := newMockProviderRepo()
	policies := newMockPolicyRepo()
	return NewService(patients, providers, policies, nopRecorder{}), patients, providers, policies
}

func strPtr(s string) *string { return &s }

func TestCreate_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()

	if err := svc.Create(context.Background(), &Patient{LastName: "Doe"}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for missing first_name, got %v", err)
	}
	if err := svc.Create(context.Background(), &Patient{FirstName: "Jane"}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for missing last_name, got %v", err)
	}
}

func TestCreate_DuplicateNationalID(t *testing.T) {
	svc, _, _, _ := newTestService()

	first := &Patient{FirstName: "Jane", LastName: "Doe", NationalID: strPtr("AB123")}
	if err := svc.Create(context.Background(), first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dup := &Patient{FirstName: "John", LastName: "Smith", NationalID: strPtr("AB123")}
	if err := svc.Create(context.Background(), dup); !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdate_PatchesOnlyProvidedFields(t *testing.T) {
	svc, _, _, _ := newTestService()

	p := &Patient{FirstName: "Jane", LastName: "Doe", City: strPtr("Springfield")}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.Update(context.Background(), p.ID, &Patient{Phone: strPtr("555-0100")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.FirstName != "Jane" || updated.LastName != "Doe" {
		t.Fatalf("name fields clobbered: %+v", updated)
	}
	if updated.City == nil || *updated.City != "Springfield" {
		t.Fatal("city clobbered")
	}
	if updated.Phone == nil || *updated.Phone != "555-0100" {
		t.Fatal("phone not applied")
	}
}

func TestAddPolicy_ValidityWindow(t *testing.T) {
	svc, _, providers, _ := newTestService()

	p := &Patient{FirstName: "Jane", LastName: "Doe"}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	pr := &InsuranceProvider{Name: "Acme Health"}
	if err := svc.CreateProvider(context.Background(), pr); err != nil {
		t.Fatalf("CreateProvider failed: %v", err)
	}
	if len(providers.providers) != 1 {
		t.Fatal("provider not stored")
	}

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	err := svc.AddPolicy(context.Background(), p.ID, &InsurancePolicy{
		ProviderID: pr.ID, PolicyNumber: "POL-1", ValidFrom: &from, ValidTo: &to,
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for inverted window, got %v", err)
	}

	goodTo := from.AddDate(1, 0, 0)
	err = svc.AddPolicy(context.Background(), p.ID, &InsurancePolicy{
		ProviderID: pr.ID, PolicyNumber: "POL-1", ValidFrom: &from, ValidTo: &goodTo,
	})
	if err != nil {
		t.Fatalf("AddPolicy failed: %v", err)
	}
}

func TestAddPolicy_DuplicateProviderNumber(t *testing.T) {
	svc, _, _, _ := newTestService()

	p := &Patient{FirstName: "Jane", LastName: "Doe"}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	pr := &InsuranceProvider{Name: "Acme Health"}
	if err := svc.CreateProvider(context.Background(), pr); err != nil {
		t.Fatalf("CreateProvider failed: %v", err)
	}

	if err := svc.AddPolicy(context.Background(), p.ID, &InsurancePolicy{ProviderID: pr.ID, PolicyNumber: "POL-1"}); err != nil {
		t.Fatalf("first AddPolicy failed: %v", err)
	}
	err := svc.AddPolicy(context.Background(), p.ID, &InsurancePolicy{ProviderID: pr.ID, PolicyNumber: "POL-1"})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAddPolicy_UnknownPatientOrProvider(t *testing.T) {
	svc, _, _, _ := newTestService()

	pr := &InsuranceProvider{Name: "Acme Health"}
	if err := svc.CreateProvider(context.Background(), pr); err != nil {
		t.Fatalf("CreateProvider failed: %v", err)
	}

	err := svc.AddPolicy(context.Background(), uuid.New(), &InsurancePolicy{ProviderID: pr.ID, PolicyNumber: "POL-1"})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found for unknown patient, got %v", err)
	}

	p := &Patient{FirstName: "Jane", LastName: "Doe"}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err = svc.AddPolicy(context.Background(), p.ID, &InsurancePolicy{ProviderID: uuid.New(), PolicyNumber: "POL-1"})
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found for unknown provider, got %v", err)
	}
}

func TestRemovePolicy_WrongPatient(t *testing.T) {
	svc, _, _, _ := newTestService()

	p := &Patient{FirstName: "Jane", LastName: "Doe"}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	pr := &InsuranceProvider{Name: "Acme Health"}
	if err := svc.CreateProvider(context.Background(), pr); err != nil {
		t.Fatalf("CreateProvider failed: %v", err)
	}
	pol := &InsurancePolicy{ProviderID: pr.ID, PolicyNumber: "POL-1"}
	if err := svc.AddPolicy(context.Background(), p.ID, pol); err != nil {
		t.Fatalf("AddPolicy failed: %v", err)
	}

	if err := svc.RemovePolicy(context.Background(), uuid.New(), pol.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found for mismatched patient, got %v", err)
	}
	if err := svc.RemovePolicy(context.Background(), p.ID, pol.ID); err != nil {
		t.Fatalf("RemovePolicy failed: %v", err)
	}
	if err := svc.RemovePolicy(context.Background(), p.ID, pol.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found for already removed policy, got %v", err)
	}
}
