package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/facility"
	"github.com/clinic/clinic/internal/domain/identity"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/locker"
)

// testDB holds the shared database infrastructure for integration tests.
type testDB struct {
	Pool    *pgxpool.Pool
	ConnStr string
}

// globalDB is the package-level test database, initialized once in TestMain.
var globalDB *testDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr, cleanup, err := startPostgresContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}

	migrator := db.NewMigrator(pool, findMigrationsDir())
	if _, err := migrator.Up(ctx); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	globalDB = &testDB{Pool: pool, ConnStr: connStr}
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// findMigrationsDir locates the migrations directory relative to this test file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	// test/integration -> repo root
	return filepath.Join(dir, "..", "..", "migrations")
}

type nopRecorder struct{}

func (nopRecorder) Record(_ context.Context, _, _, _ string, _ interface{}) {}

// newBookingService wires a scheduling service against the shared pool with
// the database row lock alone, the way the server runs without Redis.
func newBookingService() *scheduling.Service {
	repo := scheduling.NewRepoPG(globalDB.Pool, 2000)
	return scheduling.NewService(repo, locker.NewNoop(), nopRecorder{}, zerolog.Nop(), 3)
}

// createTestDoctor inserts a user plus doctor profile and returns the doctor ID.
func createTestDoctor(t *testing.T, ctx context.Context) uuid.UUID {
	t.Helper()
	suffix := uuid.New().String()[:8]
	userRepo := identity.NewUserRepoPG(globalDB.Pool)
	u := &identity.User{
		Username:     "doc_" + suffix,
		Email:        fmt.Sprintf("doc_%s@clinic.test", suffix),
		PasswordHash: "x",
		Role:         identity.RoleDoctor,
		Active:       true,
	}
	if err := userRepo.Create(ctx, u); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	d := &identity.Doctor{
		UserID:        u.ID,
		LicenseNumber: "LIC-" + suffix,
		Active:        true,
	}
	if err := identity.NewDoctorRepoPG(globalDB.Pool).Create(ctx, d); err != nil {
		t.Fatalf("create test doctor: %v", err)
	}
	return d.ID
}

// createTestPatient inserts a patient and returns its ID.
func createTestPatient(t *testing.T, ctx context.Context) uuid.UUID {
	t.Helper()
	suffix := uuid.New().String()[:8]
	nationalID := "NID-" + suffix
	p := &patient.Patient{
		NationalID: &nationalID,
		FirstName:  "Test",
		LastName:   "Patient" + suffix,
	}
	if err := patient.NewRepoPG(globalDB.Pool).Create(ctx, p); err != nil {
		t.Fatalf("create test patient: %v", err)
	}
	return p.ID
}

// createTestRoom inserts a room and returns its ID.
func createTestRoom(t *testing.T, ctx context.Context) uuid.UUID {
	t.Helper()
	r := &facility.Room{
		RoomNumber: "RM-" + uuid.New().String()[:8],
		Active:     true,
	}
	if err := facility.NewRepoPG(globalDB.Pool).Create(ctx, r); err != nil {
		t.Fatalf("create test room: %v", err)
	}
	return r.ID
}

// bookAppointment creates a scheduled appointment through the booking service.
func bookAppointment(t *testing.T, ctx context.Context, svc *scheduling.Service, doctorID, patientID uuid.UUID, start, end time.Time) *scheduling.Appointment {
	t.Helper()
	a := &scheduling.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartTime: start,
		EndTime:   end,
	}
	if err := svc.Create(ctx, a); err != nil {
		t.Fatalf("book appointment: %v", err)
	}
	return a
}

// slot returns a fixed-date appointment window, offset by whole days to keep
// unrelated tests out of each other's way.
func slot(day, hour, min, durationMin int) (time.Time, time.Time) {
	start := time.Date(2026, 9, day, hour, min, 0, 0, time.UTC)
	return start, start.Add(time.Duration(durationMin) * time.Minute)
}

// ptrTime returns a pointer to the given time.
func ptrTime(t time.Time) *time.Time { return &t }
