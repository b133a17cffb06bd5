package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/billing"
	"github.com/clinic/clinic/internal/domain/facility"
	"github.com/clinic/clinic/internal/domain/identity"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/domain/prescription"
	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/apperr"
)

func TestPatientDelete_CascadesClinicalRecords(t *testing.T) {
	ctx := context.Background()
	svc := newBookingService()
	doctorID := createTestDoctor(t, ctx)
	patientID := createTestPatient(t, ctx)

	start, end := slot(10, 9, 0, 30)
	appt := bookAppointment(t, ctx, svc, doctorID, patientID, start, end)

	medRepo := prescription.NewMedicineRepoPG(globalDB.Pool)
	med := &prescription.Medicine{Name: "Cascadol " + uuid.New().String()[:8]}
	if err := medRepo.Create(ctx, med); err != nil {
		t.Fatalf("create medicine: %v", err)
	}

	rxRepo := prescription.NewRepoPG(globalDB.Pool)
	rx := &prescription.Prescription{
		AppointmentID: appt.ID,
		Items: []prescription.Item{
			{MedicineID: med.ID, Dosage: "1 tablet daily", Duration: "5 days"},
		},
	}
	if err := rxRepo.Create(ctx, rx); err != nil {
		t.Fatalf("create prescription: %v", err)
	}

	invRepo := billing.NewRepoPG(globalDB.Pool)
	inv := &billing.Invoice{
		AppointmentID: appt.ID,
		Subtotal:      100,
		Tax:           19,
		Total:         119,
		Status:        billing.StatusUnpaid,
	}
	if err := invRepo.Create(ctx, inv); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	if err := patient.NewRepoPG(globalDB.Pool).Delete(ctx, patientID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}

	if _, err := svc.Get(ctx, appt.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected appointment gone, got %v", err)
	}
	if _, err := rxRepo.GetByID(ctx, rx.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected prescription gone, got %v", err)
	}
	if _, err := invRepo.GetByID(ctx, inv.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected invoice gone, got %v", err)
	}
}

func TestDoctorDelete_RestrictedByAppointments(t *testing.T) {
	ctx := context.Background()
	svc := newBookingService()
	doctorID := createTestDoctor(t, ctx)
	patientID := createTestPatient(t, ctx)

	start, end := slot(11, 9, 0, 30)
	bookAppointment(t, ctx, svc, doctorID, patientID, start, end)

	err := identity.NewDoctorRepoPG(globalDB.Pool).Delete(ctx, doctorID)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict deleting a doctor with appointments, got %v", err)
	}
}

func TestRoomDelete_DetachesAppointments(t *testing.T) {
	ctx := context.Background()
	svc := newBookingService()
	doctorID := createTestDoctor(t, ctx)
	patientID := createTestPatient(t, ctx)
	roomID := createTestRoom(t, ctx)

	start, end := slot(12, 9, 0, 30)
	appt := bookAppointment(t, ctx, svc, doctorID, patientID, start, end)

	if _, err := svc.Update(ctx, appt.ID, &scheduling.UpdateRequest{RoomID: &roomID}); err != nil {
		t.Fatalf("assign room: %v", err)
	}

	if err := facility.NewRepoPG(globalDB.Pool).Delete(ctx, roomID); err != nil {
		t.Fatalf("delete room: %v", err)
	}

	got, err := svc.Get(ctx, appt.ID)
	if err != nil {
		t.Fatalf("get appointment: %v", err)
	}
	if got.RoomID != nil {
		t.Fatalf("expected room detached, got %v", got.RoomID)
	}
}
