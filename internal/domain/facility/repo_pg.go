package facility

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const roomCols = `id, room_number, name, floor, active, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var rm Room
	err := row.Scan(&rm.ID, &rm.RoomNumber, &rm.Name, &rm.Floor, &rm.Active, &rm.CreatedAt, &rm.UpdatedAt)
	return &rm, err
}

func (r *repoPG) Create(ctx context.Context, room *Room) error {
	room.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO rooms (id, room_number, name, floor, active)
		VALUES ($1,$2,$3,$4,$5)`,
		room.ID, room.RoomNumber, room.Name, room.Floor, room.Active)
	return apperr.FromPG(err, "room", room.ID.String())
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	rm, err := scanRoom(r.conn(ctx).QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromPG(err, "room", id.String())
	}
	return rm, nil
}

func (r *repoPG) Update(ctx context.Context, room *Room) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE rooms SET room_number=$2, name=$3, floor=$4, active=$5, updated_at=NOW()
		WHERE id = $1`,
		room.ID, room.RoomNumber, room.Name, room.Floor, room.Active)
	if err != nil {
		return apperr.FromPG(err, "room", room.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("room", room.ID.String())
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return apperr.FromPG(err, "room", id.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("room", id.String())
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Room, int, error) {
	query := `SELECT ` + roomCols + ` FROM rooms WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM rooms WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["active"]; ok {
		query += fmt.Sprintf(` AND active = $%d`, idx)
		countQuery += fmt.Sprintf(` AND active = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["floor"]; ok {
		query += fmt.Sprintf(` AND floor = $%d`, idx)
		countQuery += fmt.Sprintf(` AND floor = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "room", "")
	}

	query += fmt.Sprintf(` ORDER BY room_number LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "room", "")
	}
	defer rows.Close()
	var items []*Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rm)
	}
	return items, total, rows.Err()
}
