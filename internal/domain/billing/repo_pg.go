package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const invoiceCols = `id, appointment_id, subtotal, tax, total, status, issued_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.AppointmentID, &inv.Subtotal, &inv.Tax, &inv.Total,
		&inv.Status, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt)
	return &inv, err
}

func (r *repoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoices (id, appointment_id, subtotal, tax, total, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		inv.ID, inv.AppointmentID, inv.Subtotal, inv.Tax, inv.Total, inv.Status)
	return apperr.FromPG(err, "invoice", inv.ID.String())
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "invoice", id.String())
	}
	payments, err := r.ListPayments(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments
	return inv, nil
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.conn(ctx).QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE appointment_id = $1`, appointmentID))
	if err != nil {
		return nil, apperr.FromPG(err, "invoice", appointmentID.String())
	}
	payments, err := r.ListPayments(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Payments = payments
	return inv, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE invoices SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return apperr.FromPG(err, "invoice", id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invoice", id.String())
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	countQuery := `
		SELECT COUNT(*) FROM invoices i
		JOIN appointments a ON a.id = i.appointment_id
		WHERE a.patient_id = $1`
	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, patientID).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "invoice", "")
	}

	query := `
		SELECT i.id, i.appointment_id, i.subtotal, i.tax, i.total, i.status, i.issued_at, i.created_at, i.updated_at
		FROM invoices i
		JOIN appointments a ON a.id = i.appointment_id
		WHERE a.patient_id = $1
		ORDER BY i.issued_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.conn(ctx).Query(ctx, query, patientID, limit, offset)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "invoice", "")
	}
	defer rows.Close()
	var items []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, inv := range items {
		payments, err := r.ListPayments(ctx, inv.ID)
		if err != nil {
			return nil, 0, err
		}
		inv.Payments = payments
	}
	return items, total, nil
}

func (r *repoPG) AddPayment(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payments (id, invoice_id, amount, method, reference)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.InvoiceID, p.Amount, p.Method, p.Reference)
	return apperr.FromPG(err, "payment", p.ID.String())
}

func (r *repoPG) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, amount, method, reference, paid_at
		FROM payments WHERE invoice_id = $1 ORDER BY paid_at`, invoiceID)
	if err != nil {
		return nil, apperr.FromPG(err, "payment", "")
	}
	defer rows.Close()
	payments := []Payment{}
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference, &p.PaidAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
