package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

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

type repoPG struct {
	pool          *pgxpool.Pool
	lockTimeoutMS int
}

// NewRepoPG creates the appointment repository. lockTimeoutMS bounds how
// long a booking transaction waits on the doctor row lock before failing
// with a transient error.
func NewRepoPG(pool *pgxpool.Pool, lockTimeoutMS int) Repository {
	return &repoPG{pool: pool, lockTimeoutMS: lockTimeoutMS}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, room_id, start_time, end_time, status, reason, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.RoomID, &a.StartTime, &a.EndTime,
		&a.Status, &a.Reason, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

// lockDoctor serializes concurrent bookings for one doctor on the doctor
// row. The lock_timeout bounds the wait; exceeding it raises 55P03 which
// translates to a transient error.
func (r *repoPG) lockDoctor(ctx context.Context, doctorID uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx, fmt.Sprintf(`SET LOCAL lock_timeout = '%dms'`, r.lockTimeoutMS)); err != nil {
		return apperr.FromPG(err, "appointment", "")
	}
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx, `SELECT id FROM doctors WHERE id = $1 FOR UPDATE`, doctorID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("doctor", doctorID.String())
	}
	if err != nil {
		return apperr.FromPG(err, "doctor", doctorID.String())
	}
	return nil
}

// findOverlaps returns every non-cancelled appointment of the doctor
// whose window intersects [start, end). exclude skips the appointment
// being updated.
func (r *repoPG) findOverlaps(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]apperr.ConflictingSlot, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, start_time, end_time FROM appointments
		WHERE doctor_id = $1 AND status <> 'cancelled'
		  AND start_time < $3 AND end_time > $2
		  AND id <> $4
		ORDER BY start_time`,
		doctorID, start, end, exclude)
	if err != nil {
		return nil, apperr.FromPG(err, "appointment", "")
	}
	defer rows.Close()
	var conflicts []apperr.ConflictingSlot
	for rows.Next() {
		var c apperr.ConflictingSlot
		if err := rows.Scan(&c.AppointmentID, &c.StartTime, &c.EndTime); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if err := r.lockDoctor(ctx, a.DoctorID); err != nil {
			return err
		}
		conflicts, err := r.findOverlaps(ctx, a.DoctorID, a.StartTime, a.EndTime, a.ID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return apperr.Overlap(conflicts)
		}
		_, err = r.conn(ctx).Exec(ctx, `
			INSERT INTO appointments (id, patient_id, doctor_id, room_id, start_time, end_time, status, reason)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			a.ID, a.PatientID, a.DoctorID, a.RoomID, a.StartTime, a.EndTime, a.Status, a.Reason)
		return apperr.FromPG(err, "appointment", a.ID.String())
	})
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "appointment", id.String())
	}
	return a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Appointment, recheckOverlap bool) error {
	if !recheckOverlap {
		return r.update(ctx, a)
	}
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if err := r.lockDoctor(ctx, a.DoctorID); err != nil {
			return err
		}
		conflicts, err := r.findOverlaps(ctx, a.DoctorID, a.StartTime, a.EndTime, a.ID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return apperr.Overlap(conflicts)
		}
		return r.update(ctx, a)
	})
}

func (r *repoPG) update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET patient_id=$2, doctor_id=$3, room_id=$4, start_time=$5, end_time=$6,
			status=$7, reason=$8, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.PatientID, a.DoctorID, a.RoomID, a.StartTime, a.EndTime, a.Status, a.Reason)
	if err != nil {
		return apperr.FromPG(err, "appointment", a.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment", a.ID.String())
	}
	return nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointments WHERE doctor_id = $1`
	countQuery := `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	idx := 2

	if from != nil {
		query += fmt.Sprintf(` AND end_time > $%d`, idx)
		countQuery += fmt.Sprintf(` AND end_time > $%d`, idx)
		args = append(args, *from)
		idx++
	}
	if to != nil {
		query += fmt.Sprintf(` AND start_time < $%d`, idx)
		countQuery += fmt.Sprintf(` AND start_time < $%d`, idx)
		args = append(args, *to)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "appointment", "")
	}

	query += fmt.Sprintf(` ORDER BY start_time ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	return r.queryList(ctx, query, args, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "appointment", "")
	}
	query := `SELECT ` + apptCols + ` FROM appointments WHERE patient_id = $1 ORDER BY start_time ASC LIMIT $2 OFFSET $3`
	return r.queryList(ctx, query, []interface{}{patientID, limit, offset}, total)
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointments WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM appointments WHERE 1=1`
	var args []interface{}
	idx := 1

	for param, col := range map[string]string{
		"doctor_id":  "doctor_id",
		"patient_id": "patient_id",
		"status":     "status",
	} {
		if p, ok := params[param]; ok {
			query += fmt.Sprintf(` AND %s = $%d`, col, idx)
			countQuery += fmt.Sprintf(` AND %s = $%d`, col, idx)
			args = append(args, p)
			idx++
		}
	}
	if p, ok := params["from"]; ok {
		query += fmt.Sprintf(` AND end_time > $%d`, idx)
		countQuery += fmt.Sprintf(` AND end_time > $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["to"]; ok {
		query += fmt.Sprintf(` AND start_time < $%d`, idx)
		countQuery += fmt.Sprintf(` AND start_time < $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "appointment", "")
	}

	query += fmt.Sprintf(` ORDER BY start_time ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	return r.queryList(ctx, query, args, total)
}

func (r *repoPG) queryList(ctx context.Context, query string, args []interface{}, total int) ([]*Appointment, int, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "appointment", "")
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
