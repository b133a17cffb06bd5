package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/facility"
	"github.com/clinic/clinic/internal/domain/identity"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/domain/prescription"
	"github.com/clinic/clinic/internal/platform/db"
)

const seedBatchSize = 500

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with fake data for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			patients, _ := cmd.Flags().GetInt("patients")
			doctors, _ := cmd.Flags().GetInt("doctors")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, pool, doctors, patients)
		},
	}
	cmd.Flags().Int("patients", 1000, "Number of patients to create")
	cmd.Flags().Int("doctors", 20, "Number of doctors to create")
	return cmd
}

func runSeed(ctx context.Context, pool *pgxpool.Pool, doctorCount, patientCount int) error {
	gofakeit.Seed(time.Now().UnixNano())

	userRepo := identity.NewUserRepoPG(pool)
	doctorRepo := identity.NewDoctorRepoPG(pool)
	specialtyRepo := identity.NewSpecialtyRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)
	providerRepo := patient.NewProviderRepoPG(pool)
	roomRepo := facility.NewRepoPG(pool)
	medicineRepo := prescription.NewMedicineRepoPG(pool)

	// All seeded accounts share one hash; hashing per user would dominate
	// the seed run.
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		return err
	}

	specialtyNames := []string{
		"Cardiology", "Dermatology", "General Practice", "Neurology",
		"Orthopedics", "Pediatrics", "Psychiatry", "Radiology",
	}
	specialtyIDs := make([]uuid.UUID, 0, len(specialtyNames))
	err = db.WithTx(ctx, pool, func(ctx context.Context) error {
		for _, name := range specialtyNames {
			sp := &identity.Specialty{Name: name}
			if err := specialtyRepo.Create(ctx, sp); err != nil {
				return err
			}
			specialtyIDs = append(specialtyIDs, sp.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed specialties: %w", err)
	}
	fmt.Printf("Seeded %d specialties.\n", len(specialtyNames))

	err = db.WithTx(ctx, pool, func(ctx context.Context) error {
		admin := &identity.User{
			Username:     "admin",
			Email:        "admin@clinic.local",
			PasswordHash: string(hash),
			Role:         identity.RoleAdmin,
			Active:       true,
		}
		return userRepo.Create(ctx, admin)
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	for i := 0; i < doctorCount; i++ {
		err = db.WithTx(ctx, pool, func(ctx context.Context) error {
			u := &identity.User{
				Username:     fmt.Sprintf("doctor%03d", i+1),
				Email:        fmt.Sprintf("doctor%03d@clinic.local", i+1),
				PasswordHash: string(hash),
				Role:         identity.RoleDoctor,
				Active:       true,
			}
			if err := userRepo.Create(ctx, u); err != nil {
				return err
			}
			d := &identity.Doctor{
				UserID:        u.ID,
				LicenseNumber: fmt.Sprintf("MD-%06d", 100000+i),
				Active:        true,
			}
			if err := doctorRepo.Create(ctx, d); err != nil {
				return err
			}
			spec := specialtyIDs[i%len(specialtyIDs)]
			return doctorRepo.SetSpecialties(ctx, d.ID, []uuid.UUID{spec})
		})
		if err != nil {
			return fmt.Errorf("seed doctor %d: %w", i, err)
		}
	}
	fmt.Printf("Seeded %d doctors.\n", doctorCount)

	for start := 0; start < patientCount; start += seedBatchSize {
		end := start + seedBatchSize
		if end > patientCount {
			end = patientCount
		}
		err = db.WithTx(ctx, pool, func(ctx context.Context) error {
			for i := start; i < end; i++ {
				birth := gofakeit.DateRange(
					time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC))
				nationalID := fmt.Sprintf("NID-%08d", i+1)
				gender := gofakeit.Gender()
				phone := gofakeit.Phone()
				email := gofakeit.Email()
				addr := gofakeit.Address()
				p := &patient.Patient{
					NationalID:  &nationalID,
					FirstName:   gofakeit.FirstName(),
					LastName:    gofakeit.LastName(),
					BirthDate:   &birth,
					Gender:      &gender,
					Phone:       &phone,
					Email:       &email,
					AddressLine: &addr.Street,
					City:        &addr.City,
				}
				if err := patientRepo.Create(ctx, p); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("seed patients %d-%d: %w", start, end, err)
		}
	}
	fmt.Printf("Seeded %d patients.\n", patientCount)

	err = db.WithTx(ctx, pool, func(ctx context.Context) error {
		for floor := 1; floor <= 3; floor++ {
			for n := 1; n <= 10; n++ {
				floor := floor
				name := fmt.Sprintf("Exam Room %d%02d", floor, n)
				room := &facility.Room{
					RoomNumber: fmt.Sprintf("%d%02d", floor, n),
					Name:       &name,
					Floor:      &floor,
					Active:     true,
				}
				if err := roomRepo.Create(ctx, room); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed rooms: %w", err)
	}
	fmt.Println("Seeded 30 rooms.")

	err = db.WithTx(ctx, pool, func(ctx context.Context) error {
		forms := []string{"tablet", "capsule", "syrup", "injection"}
		for i := 0; i < 100; i++ {
			form := forms[i%len(forms)]
			strength := fmt.Sprintf("%dmg", gofakeit.Number(1, 100)*10)
			m := &prescription.Medicine{
				Name:     fmt.Sprintf("%s %03d", gofakeit.PetName(), i+1),
				Form:     &form,
				Strength: &strength,
			}
			if err := medicineRepo.Create(ctx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed medicines: %w", err)
	}
	fmt.Println("Seeded 100 medicines.")

	err = db.WithTx(ctx, pool, func(ctx context.Context) error {
		for i := 0; i < 5; i++ {
			phone := gofakeit.Phone()
			pr := &patient.InsuranceProvider{
				Name:  fmt.Sprintf("%s Insurance", gofakeit.Company()),
				Phone: &phone,
			}
			if err := providerRepo.Create(ctx, pr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed insurance providers: %w", err)
	}
	fmt.Println("Seeded 5 insurance providers.")

	return nil
}
