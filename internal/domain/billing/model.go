package billing

import (
	"time"

	"github.com/google/uuid"
)

// Invoice statuses.
const (
	StatusUnpaid        = "unpaid"
	StatusPaid          = "paid"
	StatusPartiallyPaid = "partially_paid"
	StatusCancelled     = "cancelled"
)

// Payment methods accepted by the invoices check constraint.
var validMethods = map[string]bool{
	"cash": true, "card": true, "insurance": true, "transfer": true,
}

// Invoice maps to the invoices table. At most one exists per
// appointment; Total is always Subtotal + Tax.
type Invoice struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Subtotal      float64   `db:"subtotal" json:"subtotal"`
	Tax           float64   `db:"tax" json:"tax"`
	Total         float64   `db:"total" json:"total"`
	Status        string    `db:"status" json:"status"`
	IssuedAt      time.Time `db:"issued_at" json:"issued_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
	Payments      []Payment `db:"-" json:"payments"`
}

// Payment maps to the payments table.
type Payment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	InvoiceID uuid.UUID `db:"invoice_id" json:"invoice_id"`
	Amount    float64   `db:"amount" json:"amount"`
	Method    string    `db:"method" json:"method"`
	Reference *string   `db:"reference" json:"reference,omitempty"`
	PaidAt    time.Time `db:"paid_at" json:"paid_at"`
}

// PaidSum returns the amount already collected on the invoice.
func (inv *Invoice) PaidSum() float64 {
	var sum float64
	for _, p := range inv.Payments {
		sum += p.Amount
	}
	return sum
}
