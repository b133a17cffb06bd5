package facility

import (
	"time"

	"github.com/google/uuid"
)

// Room maps to the rooms table. RoomNumber is unique.
type Room struct {
	ID         uuid.UUID `db:"id" json:"id"`
	RoomNumber string    `db:"room_number" json:"room_number"`
	Name       *string   `db:"name" json:"name,omitempty"`
	Floor      *int      `db:"floor" json:"floor,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
