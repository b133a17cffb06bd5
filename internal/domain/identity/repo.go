package identity

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*User, int, error)
}

type SpecialtyRepository interface {
	Create(ctx context.Context, sp *Specialty) error
	GetByID(ctx context.Context, id uuid.UUID) (*Specialty, error)
	List(ctx context.Context) ([]*Specialty, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error)
	SetSpecialties(ctx context.Context, doctorID uuid.UUID, specialtyIDs []uuid.UUID) error
	GetSpecialties(ctx context.Context, doctorID uuid.UUID) ([]Specialty, error)
}
