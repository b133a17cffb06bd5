package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry maps to the audit_logs table. The trail is append-only: entries
// are written once and never updated or deleted.
type Entry struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Action    string     `db:"action" json:"action"`
	Entity    string     `db:"entity" json:"entity"`
	EntityID  *string    `db:"entity_id" json:"entity_id,omitempty"`
	Detail    *string    `db:"detail" json:"detail,omitempty"`
	RequestID *string    `db:"request_id" json:"request_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
