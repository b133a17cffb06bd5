package identity

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/platform/apperr"
)

var validRoles = map[string]bool{
	RoleAdmin: true, RoleDoctor: true, RoleNurse: true, RoleReceptionist: true,
}

// Recorder writes entity-level audit entries. Satisfied by the audit
// service.
type Recorder interface {
	Record(ctx context.Context, action, entity, entityID string, detail interface{})
}

type Service struct {
	users       UserRepository
	doctors     DoctorRepository
	specialties SpecialtyRepository
	audit       Recorder
}

func NewService(users UserRepository, doctors DoctorRepository, specialties SpecialtyRepository, audit Recorder) *Service {
	return &Service{users: users, doctors: doctors, specialties: specialties, audit: audit}
}

// -- Users --

func (s *Service) CreateUser(ctx context.Context, u *User) error {
	if u.Username == "" {
		return apperr.Validation("username is required")
	}
	if u.Email == "" {
		return apperr.Validation("email is required")
	}
	if u.Password == "" {
		return apperr.Validation("password is required")
	}
	if !validRoles[u.Role] {
		return apperr.Validation("invalid role: %s", u.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.Password = ""
	u.Active = true

	if err := s.users.Create(ctx, u); err != nil {
		return err
	}
	s.audit.Record(ctx, "user.create", "user", u.ID.String(), map[string]string{"username": u.Username, "role": u.Role})
	return nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, params map[string]string, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, params, limit, offset)
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, u *User) (*User, error) {
	existing, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Email != "" {
		existing.Email = u.Email
	}
	if u.Role != "" {
		if !validRoles[u.Role] {
			return nil, apperr.Validation("invalid role: %s", u.Role)
		}
		existing.Role = u.Role
	}
	if u.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		existing.PasswordHash = string(hash)
	}
	existing.Active = u.Active

	if err := s.users.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "user.update", "user", existing.ID.String(), nil)
	return existing, nil
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "user.delete", "user", id.String(), nil)
	return nil
}

// VerifyPassword checks a plaintext password against the stored hash.
func (s *Service) VerifyPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// -- Specialties --

func (s *Service) CreateSpecialty(ctx context.Context, sp *Specialty) error {
	if sp.Name == "" {
		return apperr.Validation("name is required")
	}
	return s.specialties.Create(ctx, sp)
}

func (s *Service) ListSpecialties(ctx context.Context) ([]*Specialty, error) {
	return s.specialties.List(ctx)
}

func (s *Service) DeleteSpecialty(ctx context.Context, id uuid.UUID) error {
	return s.specialties.Delete(ctx, id)
}

// -- Doctors --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.UserID == uuid.Nil {
		return apperr.Validation("user_id is required")
	}
	if d.LicenseNumber == "" {
		return apperr.Validation("license_number is required")
	}
	if _, err := s.users.GetByID(ctx, d.UserID); err != nil {
		return err
	}
	if _, err := s.doctors.GetByUserID(ctx, d.UserID); err == nil {
		return apperr.Conflict("user %s already has a doctor profile", d.UserID)
	} else if !apperr.IsNotFound(err) {
		return err
	}

	d.Active = true
	if err := s.doctors.Create(ctx, d); err != nil {
		return err
	}
	s.audit.Record(ctx, "doctor.create", "doctor", d.ID.String(), map[string]string{"license_number": d.LicenseNumber})
	return nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, params map[string]string, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, params, limit, offset)
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, d *Doctor) (*Doctor, error) {
	existing, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if d.LicenseNumber != "" {
		existing.LicenseNumber = d.LicenseNumber
	}
	existing.Active = d.Active

	if err := s.doctors.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "doctor.update", "doctor", existing.ID.String(), nil)
	return existing, nil
}

// DeleteDoctor removes a doctor profile. Doctors with appointments are
// protected by the FK and surface as a conflict.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.doctors.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "doctor.delete", "doctor", id.String(), nil)
	return nil
}

func (s *Service) SetDoctorSpecialties(ctx context.Context, doctorID uuid.UUID, specialtyIDs []uuid.UUID) (*Doctor, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}
	for _, spID := range specialtyIDs {
		if _, err := s.specialties.GetByID(ctx, spID); err != nil {
			return nil, err
		}
	}
	if err := s.doctors.SetSpecialties(ctx, doctorID, specialtyIDs); err != nil {
		return nil, err
	}
	return s.doctors.GetByID(ctx, doctorID)
}
