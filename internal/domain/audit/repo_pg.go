package audit

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

const entryCols = `id, user_id, action, entity, entity_id, detail, request_id, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.Action, &e.Entity, &e.EntityID, &e.Detail, &e.RequestID, &e.CreatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, entity, entity_id, detail, request_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.UserID, e.Action, e.Entity, e.EntityID, e.Detail, e.RequestID)
	return apperr.FromPG(err, "audit entry", e.ID.String())
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Entry, int, error) {
	query := `SELECT ` + entryCols + ` FROM audit_logs WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["user_id"]; ok {
		query += fmt.Sprintf(` AND user_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND user_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["entity"]; ok {
		query += fmt.Sprintf(` AND entity = $%d`, idx)
		countQuery += fmt.Sprintf(` AND entity = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["entity_id"]; ok {
		query += fmt.Sprintf(` AND entity_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND entity_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["action"]; ok {
		query += fmt.Sprintf(` AND action = $%d`, idx)
		countQuery += fmt.Sprintf(` AND action = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["from"]; ok {
		query += fmt.Sprintf(` AND created_at >= $%d`, idx)
		countQuery += fmt.Sprintf(` AND created_at >= $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["to"]; ok {
		query += fmt.Sprintf(` AND created_at < $%d`, idx)
		countQuery += fmt.Sprintf(` AND created_at < $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromPG(err, "audit entry", "")
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.FromPG(err, "audit entry", "")
	}
	defer rows.Close()
	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
