package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. NationalID is optional but unique
// when present.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	NationalID  *string    `db:"national_id" json:"national_id,omitempty"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	BirthDate   *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Gender      *string    `db:"gender" json:"gender,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Email       *string    `db:"email" json:"email,omitempty"`
	AddressLine *string    `db:"address_line" json:"address_line,omitempty"`
	City        *string    `db:"city" json:"city,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// InsuranceProvider maps to the insurance_providers table.
type InsuranceProvider struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// InsurancePolicy maps to the insurance_policies table. The pair
// (provider_id, policy_number) is unique.
type InsurancePolicy struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID   uuid.UUID  `db:"provider_id" json:"provider_id"`
	PolicyNumber string     `db:"policy_number" json:"policy_number"`
	ValidFrom    *time.Time `db:"valid_from" json:"valid_from,omitempty"`
	ValidTo      *time.Time `db:"valid_to" json:"valid_to,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
