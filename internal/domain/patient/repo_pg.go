package patient

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

// =========== Patient Repository ===========

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, national_id, first_name, last_name, birth_date, gender, phone, email, address_line, city, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.NationalID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Gender,
		&p.Phone, &p.Email, &p.AddressLine, &p.City, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, national_id, first_name, last_name, birth_date, gender, phone, email, address_line, city)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.NationalID, p.FirstName, p.LastName, p.BirthDate, p.Gender,
		p.Phone, p.Email, p.AddressLine, p.City)
	return apperr.FromPG(err, "patient", p.ID.String())
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "patient", id.String())
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET national_id=$2, first_name=$3, last_name=$4, birth_date=$5, gender=$6,
			phone=$7, email=$8, address_line=$9, city=$10, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.NationalID, p.FirstName, p.LastName, p.BirthDate, p.Gender,
		p.Phone, p.Email, p.AddressLine, p.City)
	if err != nil {
		return apperr.FromPG(err, "patient", p.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient", p.ID.String())
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "patient", id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient", id.String())
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	query := `SELECT ` + patientCols + ` FROM patients WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM patients WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["national_id"]; ok {
		query += fmt.Sprintf(` AND national_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND national_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["last_name"]; ok {
		query += fmt.Sprintf(` AND last_name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND last_name ILIKE $%d`, idx)
		args = append(args, p+"%")
		idx++
	}
	if p, ok := params["city"]; ok {
		query += fmt.Sprintf(` AND city = $%d`, idx)
		countQuery += fmt.Sprintf(` AND city = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "patient", "")
	}

	query += fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "patient", "")
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

// =========== Insurance Provider Repository ===========

type providerRepoPG struct{ pool *pgxpool.Pool }

func NewProviderRepoPG(pool *pgxpool.Pool) ProviderRepository { return &providerRepoPG{pool: pool} }

func (r *providerRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const providerCols = `id, name, phone, created_at`

func scanProvider(row pgx.Row) (*InsuranceProvider, error) {
	var pr InsuranceProvider
	err := row.Scan(&pr.ID, &pr.Name, &pr.Phone, &pr.CreatedAt)
	return &pr, err
}

func (r *providerRepoPG) Create(ctx context.Context, pr *InsuranceProvider) error {
	pr.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO insurance_providers (id, name, phone) VALUES ($1,$2,$3)`,
		pr.ID, pr.Name, pr.Phone)
	return apperr.FromPG(err, "insurance provider", pr.ID.String())
}

func (r *providerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*InsuranceProvider, error) {
	pr, err := scanProvider(r.conn(ctx).QueryRow(ctx, `SELECT `+providerCols+` FROM insurance_providers WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "insurance provider", id.String())
	}
	return pr, nil
}

func (r *providerRepoPG) List(ctx context.Context) ([]*InsuranceProvider, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+providerCols+` FROM insurance_providers ORDER BY name`)
	if err != nil {
		return nil, apperr.FromPG(err, "insurance provider", "")
	}
	defer rows.Close()
	var items []*InsuranceProvider
	for rows.Next() {
		pr, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, pr)
	}
	return items, rows.Err()
}

func (r *providerRepoPG) Update(ctx context.Context, pr *InsuranceProvider) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE insurance_providers SET name=$2, phone=$3 WHERE id = $1`,
		pr.ID, pr.Name, pr.Phone)
	if err != nil {
		return apperr.FromPG(err, "insurance provider", pr.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("insurance provider", pr.ID.String())
	}
	return nil
}

func (r *providerRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM insurance_providers WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "insurance provider", id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("insurance provider", id.String())
	}
	return nil
}

// =========== Insurance Policy Repository ===========

type policyRepoPG struct{ pool *pgxpool.Pool }

func NewPolicyRepoPG(pool *pgxpool.Pool) PolicyRepository { return &policyRepoPG{pool: pool} }

func (r *policyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const policyCols = `id, patient_id, provider_id, policy_number, valid_from, valid_to, created_at`

func scanPolicy(row pgx.Row) (*InsurancePolicy, error) {
	var pol InsurancePolicy
	err := row.Scan(&pol.ID, &pol.PatientID, &pol.ProviderID, &pol.PolicyNumber,
		&pol.ValidFrom, &pol.ValidTo, &pol.CreatedAt)
	return &pol, err
}

func (r *policyRepoPG) Create(ctx context.Context, pol *InsurancePolicy) error {
	pol.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO insurance_policies (id, patient_id, provider_id, policy_number, valid_from, valid_to)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		pol.ID, pol.PatientID, pol.ProviderID, pol.PolicyNumber, pol.ValidFrom, pol.ValidTo)
	return apperr.FromPG(err, "insurance policy", pol.ID.String())
}

func (r *policyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*InsurancePolicy, error) {
	pol, err := scanPolicy(r.conn(ctx).QueryRow(ctx, `SELECT `+policyCols+` FROM insurance_policies WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "insurance policy", id.String())
	}
	return pol, nil
}

func (r *policyRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*InsurancePolicy, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+policyCols+` FROM insurance_policies WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err != nil {
		return nil, apperr.FromPG(err, "insurance policy", "")
	}
	defer rows.Close()
	var items []*InsurancePolicy
	for rows.Next() {
		pol, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, pol)
	}
	return items, rows.Err()
}

func (r *policyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM insurance_policies WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "insurance policy", id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("insurance policy", id.String())
	}
	return nil
}
