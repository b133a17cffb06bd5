package prescription

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
	prescriptions Repository
	medicines     MedicineRepository
	audit         Recorder
}

func NewService(prescriptions Repository, medicines MedicineRepository, audit Recorder) *Service {
	return &Service{prescriptions: prescriptions, medicines: medicines, audit: audit}
}

// -- Medicines --

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return apperr.Validation("name is required")
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) ListMedicines(ctx context.Context, params map[string]string, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.List(ctx, params, limit, offset)
}

func (s *Service) UpdateMedicine(ctx context.Context, id uuid.UUID, m *Medicine) (*Medicine, error) {
	existing, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Name != "" {
		existing.Name = m.Name
	}
	if m.Form != nil {
		existing.Form = m.Form
	}
	if m.Strength != nil {
		existing.Strength = m.Strength
	}
	if err := s.medicines.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteMedicine removes a catalog entry. Medicines referenced by a
// prescription are protected by the FK and surface as a conflict.
func (s *Service) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	return s.medicines.Delete(ctx, id)
}

// -- Prescriptions --

func validateItem(item *Item) error {
	if item.MedicineID == uuid.Nil {
		return apperr.Validation("medicine_id is required")
	}
	if item.Dosage == "" {
		return apperr.Validation("dosage is required")
	}
	if item.Duration == "" {
		return apperr.Validation("duration is required")
	}
	return nil
}

// Create writes a prescription for an appointment. The appointment must
// exist (FK), only one prescription may exist per appointment, and every
// item needs a known medicine with dosage and duration.
func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if p.AppointmentID == uuid.Nil {
		return apperr.Validation("appointment_id is required")
	}
	if len(p.Items) == 0 {
		return apperr.Validation("a prescription needs at least one item")
	}
	for i := range p.Items {
		if err := validateItem(&p.Items[i]); err != nil {
			return err
		}
		if _, err := s.medicines.GetByID(ctx, p.Items[i].MedicineID); err != nil {
			return err
		}
	}

	if err := s.prescriptions.Create(ctx, p); err != nil {
		return err
	}
	s.audit.Record(ctx, "prescription.create", "prescription", p.ID.String(),
		map[string]string{"appointment_id": p.AppointmentID.String()})
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByAppointment(ctx, appointmentID)
}

func (s *Service) AddItem(ctx context.Context, prescriptionID uuid.UUID, item *Item) (*Prescription, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if _, err := s.prescriptions.GetByID(ctx, prescriptionID); err != nil {
		return nil, err
	}
	if _, err := s.medicines.GetByID(ctx, item.MedicineID); err != nil {
		return nil, err
	}

	item.PrescriptionID = prescriptionID
	if err := s.prescriptions.AddItem(ctx, item); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "prescription.add_item", "prescription", prescriptionID.String(),
		map[string]string{"medicine_id": item.MedicineID.String()})
	return s.prescriptions.GetByID(ctx, prescriptionID)
}

func (s *Service) RemoveItem(ctx context.Context, prescriptionID, medicineID uuid.UUID) (*Prescription, error) {
	if err := s.prescriptions.RemoveItem(ctx, prescriptionID, medicineID); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "prescription.remove_item", "prescription", prescriptionID.String(),
		map[string]string{"medicine_id": medicineID.String()})
	return s.prescriptions.GetByID(ctx, prescriptionID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.prescriptions.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "prescription.delete", "prescription", id.String(), nil)
	return nil
}
