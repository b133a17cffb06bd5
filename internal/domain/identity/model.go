package identity

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user account may carry.
const (
	RoleAdmin        = "admin"
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RoleReceptionist = "receptionist"
)

// User maps to the users table. PasswordHash is never serialized.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Password is accepted on create/update and hashed before storage.
	Password string `db:"-" json:"password,omitempty"`
}

// Specialty maps to the specialties table.
type Specialty struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

// Doctor maps to the doctors table. Specialties are loaded on read.
type Doctor struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	UserID        uuid.UUID   `db:"user_id" json:"user_id"`
	LicenseNumber string      `db:"license_number" json:"license_number"`
	Active        bool        `db:"active" json:"active"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
	Specialties   []Specialty `db:"-" json:"specialties"`
}
