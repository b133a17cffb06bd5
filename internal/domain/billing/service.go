package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// epsilon absorbs float rounding when comparing money sums.
const epsilon = 0.005

// Recorder writes entity-level audit entries. Satisfied by the audit
// service.
type Recorder interface {
	Record(ctx context.Context, action, entity, entityID string, detail interface{})
}

type Service struct {
	repo  Repository
	audit Recorder
}

func NewService(repo Repository, audit Recorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateInvoice issues the invoice for an appointment. Total is derived,
// never taken from the request. The appointment must exist (FK) and only
// one invoice may exist per appointment.
func (s *Service) CreateInvoice(ctx context.Context, appointmentID uuid.UUID, subtotal, tax float64) (*Invoice, error) {
	if appointmentID == uuid.Nil {
		return nil, apperr.Validation("appointment_id is required")
	}
	if subtotal < 0 {
		return nil, apperr.Validation("subtotal must not be negative")
	}
	if tax < 0 {
		return nil, apperr.Validation("tax must not be negative")
	}

	inv := &Invoice{
		AppointmentID: appointmentID,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         subtotal + tax,
		Status:        StatusUnpaid,
		Payments:      []Payment{},
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "invoice.create", "invoice", inv.ID.String(), map[string]string{
		"appointment_id": appointmentID.String(),
		"total":          fmt.Sprintf("%.2f", inv.Total),
	})
	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error) {
	return s.repo.GetByAppointment(ctx, appointmentID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// RecordPayment applies a payment to an invoice and recomputes its
// status. Cancelled invoices take no payments; a payment may never push
// the collected sum past the total.
func (s *Service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, p *Payment) (*Invoice, error) {
	if p.Amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	if !validMethods[p.Method] {
		return nil, apperr.Validation("invalid payment method: %s", p.Method)
	}

	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusCancelled {
		return nil, apperr.Conflict("invoice %s is cancelled", invoiceID)
	}
	paid := inv.PaidSum() + p.Amount
	if paid > inv.Total+epsilon {
		return nil, apperr.Validation("payment of %.2f would exceed the invoice total %.2f", p.Amount, inv.Total)
	}

	p.InvoiceID = invoiceID
	if err := s.repo.AddPayment(ctx, p); err != nil {
		return nil, err
	}

	status := StatusPartiallyPaid
	if paid >= inv.Total-epsilon {
		status = StatusPaid
	}
	if err := s.repo.UpdateStatus(ctx, invoiceID, status); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "invoice.payment", "invoice", invoiceID.String(), map[string]string{
		"amount": fmt.Sprintf("%.2f", p.Amount),
		"method": p.Method,
	})
	return s.repo.GetByID(ctx, invoiceID)
}

// CancelInvoice voids an unpaid invoice. Cancelling twice is a no-op;
// an invoice with payments on record cannot be cancelled.
func (s *Service) CancelInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusCancelled {
		return inv, nil
	}
	if len(inv.Payments) > 0 {
		return nil, apperr.Conflict("invoice %s has payments and cannot be cancelled", id)
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "invoice.cancel", "invoice", id.String(), nil)
	inv.Status = StatusCancelled
	return inv, nil
}
