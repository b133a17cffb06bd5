package identity

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

// =========== User Repository ===========

type userRepoPG struct{ pool *pgxpool.Pool }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{pool: pool} }

func (r *userRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const userCols = `id, username, email, password_hash, role, active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.Active)
	return apperr.FromPG(err, "user", u.ID.String())
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "user", id.String())
	}
	return u, nil
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, apperr.FromPG(err, "user", username)
	}
	return u, nil
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET email=$2, password_hash=$3, role=$4, active=$5, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.Active)
	if err != nil {
		return apperr.FromPG(err, "user", u.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user", u.ID.String())
	}
	return nil
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "user", id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user", id.String())
	}
	return nil
}

func (r *userRepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*User, int, error) {
	query := `SELECT ` + userCols + ` FROM users WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM users WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["role"]; ok {
		query += fmt.Sprintf(` AND role = $%d`, idx)
		countQuery += fmt.Sprintf(` AND role = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["active"]; ok {
		query += fmt.Sprintf(` AND active = $%d`, idx)
		countQuery += fmt.Sprintf(` AND active = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "user", "")
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "user", "")
	}
	defer rows.Close()
	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

// =========== Specialty Repository ===========

type specialtyRepoPG struct{ pool *pgxpool.Pool }

func NewSpecialtyRepoPG(pool *pgxpool.Pool) SpecialtyRepository { return &specialtyRepoPG{pool: pool} }

func (r *specialtyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *specialtyRepoPG) Create(ctx context.Context, sp *Specialty) error {
	sp.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO specialties (id, name) VALUES ($1,$2)`, sp.ID, sp.Name)
	return apperr.FromPG(err, "specialty", sp.ID.String())
}

func (r *specialtyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	var sp Specialty
	err := r.conn(ctx).QueryRow(ctx, `SELECT id, name FROM specialties WHERE id = $1`, id).Scan(&sp.ID, &sp.Name)
	if err != nil {
		return nil, apperr.FromPG(err, "specialty", id.String())
	}
	return &sp, nil
}

func (r *specialtyRepoPG) List(ctx context.Context) ([]*Specialty, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM specialties ORDER BY name`)
	if err != nil {
		return nil, apperr.FromPG(err, "specialty", "")
	}
	defer rows.Close()
	var items []*Specialty
	for rows.Next() {
		var sp Specialty
		if err := rows.Scan(&sp.ID, &sp.Name); err != nil {
			return nil, err
		}
		items = append(items, &sp)
	}
	return items, rows.Err()
}

func (r *specialtyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM specialties WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "specialty", id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("specialty", id.String())
	}
	return nil
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const doctorCols = `id, user_id, license_number, active, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.LicenseNumber, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctors (id, user_id, license_number, active)
		VALUES ($1,$2,$3,$4)`,
		d.ID, d.UserID, d.LicenseNumber, d.Active)
	return apperr.FromPG(err, "doctor", d.ID.String())
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "doctor", id.String())
	}
	specs, err := r.GetSpecialties(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Specialties = specs
	return d, nil
}

func (r *doctorRepoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctors WHERE user_id = $1`, userID))
	if err != nil {
		return nil, apperr.FromPG(err, "doctor", userID.String())
	}
	return d, nil
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET license_number=$2, active=$3, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.LicenseNumber, d.Active)
	if err != nil {
		return apperr.FromPG(err, "doctor", d.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("doctor", d.ID.String())
	}
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "doctor", id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("doctor", id.String())
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error) {
	query := `SELECT ` + doctorCols + ` FROM doctors WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM doctors WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["active"]; ok {
		query += fmt.Sprintf(` AND active = $%d`, idx)
		countQuery += fmt.Sprintf(` AND active = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["specialty"]; ok {
		sub := fmt.Sprintf(` AND id IN (SELECT doctor_id FROM doctor_specialties ds JOIN specialties sp ON sp.id = ds.specialty_id WHERE sp.name = $%d)`, idx)
		query += sub
		countQuery += sub
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "doctor", "")
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "doctor", "")
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, d := range items {
		specs, err := r.GetSpecialties(ctx, d.ID)
		if err != nil {
			return nil, 0, err
		}
		d.Specialties = specs
	}
	return items, total, nil
}

func (r *doctorRepoPG) SetSpecialties(ctx context.Context, doctorID uuid.UUID, specialtyIDs []uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor_specialties WHERE doctor_id = $1`, doctorID); err != nil {
		return apperr.FromPG(err, "doctor", doctorID.String())
	}
	for _, spID := range specialtyIDs {
		if _, err := r.conn(ctx).Exec(ctx,
			`INSERT INTO doctor_specialties (doctor_id, specialty_id) VALUES ($1,$2)`,
			doctorID, spID); err != nil {
			return apperr.FromPG(err, "specialty", spID.String())
		}
	}
	return nil
}

func (r *doctorRepoPG) GetSpecialties(ctx context.Context, doctorID uuid.UUID) ([]Specialty, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT sp.id, sp.name FROM specialties sp
		JOIN doctor_specialties ds ON ds.specialty_id = sp.id
		WHERE ds.doctor_id = $1
		ORDER BY sp.name`, doctorID)
	if err != nil {
		return nil, apperr.FromPG(err, "specialty", "")
	}
	defer rows.Close()
	specs := []Specialty{}
	for rows.Next() {
		var sp Specialty
		if err := rows.Scan(&sp.ID, &sp.Name); err != nil {
			return nil, err
		}
		specs = append(specs, sp)
	}
	return specs, rows.Err()
}
