package prescription

import (
	"context"
	"fmt"

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

// =========== Medicine Repository ===========

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository { return &medicineRepoPG{pool: pool} }

func (r *medicineRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const medicineCols = `id, name, form, strength, created_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Form, &m.Strength, &m.CreatedAt)
	return &m, err
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO medicines (id, name, form, strength) VALUES ($1,$2,$3,$4)`,
		m.ID, m.Name, m.Form, m.Strength)
	return apperr.FromPG(err, "medicine", m.ID.String())
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	m, err := scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medicineCols+` FROM medicines WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "medicine", id.String())
	}
	return m, nil
}

func (r *medicineRepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Medicine, int, error) {
	query := `SELECT ` + medicineCols + ` FROM medicines WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM medicines WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["name"]; ok {
		query += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND name ILIKE $%d`, idx)
		args = append(args, p+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "medicine", "")
	}

	query += fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "medicine", "")
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *medicineRepoPG) Update(ctx context.Context, m *Medicine) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE medicines SET name=$2, form=$3, strength=$4 WHERE id = $1`,
		m.ID, m.Name, m.Form, m.Strength)
	if err != nil {
		return apperr.FromPG(err, "medicine", m.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medicine", m.ID.String())
	}
	return nil
}

func (r *medicineRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "medicine", id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medicine", id.String())
	}
	return nil
}

// =========== Prescription Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Create inserts the prescription and its items in one transaction so a
// rejected item never leaves a half-written prescription behind.
func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		_, err := r.conn(ctx).Exec(ctx,
			`INSERT INTO prescriptions (id, appointment_id, notes) VALUES ($1,$2,$3)`,
			p.ID, p.AppointmentID, p.Notes)
		if err != nil {
			return apperr.FromPG(err, "prescription", p.ID.String())
		}
		for i := range p.Items {
			p.Items[i].PrescriptionID = p.ID
			if err := r.AddItem(ctx, &p.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	var p Prescription
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, appointment_id, notes, created_at FROM prescriptions WHERE id = $1`, id).
		Scan(&p.ID, &p.AppointmentID, &p.Notes, &p.CreatedAt)
	if err != nil {
		return nil, apperr.FromPG(err, "prescription", id.String())
	}
	if err := r.loadItems(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	var p Prescription
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, appointment_id, notes, created_at FROM prescriptions WHERE appointment_id = $1`, appointmentID).
		Scan(&p.ID, &p.AppointmentID, &p.Notes, &p.CreatedAt)
	if err != nil {
		return nil, apperr.FromPG(err, "prescription", appointmentID.String())
	}
	if err := r.loadItems(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) loadItems(ctx context.Context, p *Prescription) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT prescription_id, medicine_id, dosage, duration
		FROM prescription_medicines WHERE prescription_id = $1`, p.ID)
	if err != nil {
		return apperr.FromPG(err, "prescription", p.ID.String())
	}
	defer rows.Close()
	p.Items = []Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.PrescriptionID, &item.MedicineID, &item.Dosage, &item.Duration); err != nil {
			return err
		}
		p.Items = append(p.Items, item)
	}
	return rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "prescription", id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prescription", id.String())
	}
	return nil
}

func (r *repoPG) AddItem(ctx context.Context, item *Item) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription_medicines (prescription_id, medicine_id, dosage, duration)
		VALUES ($1,$2,$3,$4)`,
		item.PrescriptionID, item.MedicineID, item.Dosage, item.Duration)
	return apperr.FromPG(err, "prescription item", item.MedicineID.String())
}

func (r *repoPG) RemoveItem(ctx context.Context, prescriptionID, medicineID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM prescription_medicines WHERE prescription_id = $1 AND medicine_id = $2`,
		prescriptionID, medicineID)
	if err != nil {
		return apperr.FromPG(err, "prescription item", medicineID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("prescription item", medicineID.String())
	}
	return nil
}
