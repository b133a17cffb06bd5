package apperr

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"validation", Validation("bad input"), IsValidation},
		{"not found", NotFound("patient", "abc"), IsNotFound},
		{"conflict", Conflict("duplicate"), IsConflict},
		{"transient", Transient(errors.New("deadlock")), IsTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.pred(tt.err) {
				t.Errorf("predicate did not match %v", tt.err)
			}
			if tt.pred(errors.New("plain")) {
				t.Error("predicate matched a plain error")
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("doctor", "x"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Transient(errors.New("lock")), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestOverlap(t *testing.T) {
	id := uuid.New()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	err := Overlap([]ConflictingSlot{{AppointmentID: id, StartTime: start, EndTime: start.Add(30 * time.Minute)}})

	if !IsConflict(err) {
		t.Fatal("expected a conflict error")
	}
	var c *ConflictError
	errors.As(err, &c)
	if len(c.Conflicts) != 1 || c.Conflicts[0].AppointmentID != id {
		t.Errorf("expected conflicting slot %s, got %+v", id, c.Conflicts)
	}

	p := Payload(err)
	if p["kind"] != "conflict" {
		t.Errorf("expected kind conflict, got %v", p["kind"])
	}
	if _, ok := p["conflicts"]; !ok {
		t.Error("expected payload to carry conflicts")
	}
}

func TestPayload_NoConflicts(t *testing.T) {
	p := Payload(NotFound("room", "r1"))
	if p["kind"] != "not_found" {
		t.Errorf("expected kind not_found, got %v", p["kind"])
	}
	if _, ok := p["conflicts"]; ok {
		t.Error("did not expect conflicts in payload")
	}
}

func TestFromPG(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"no rows", pgx.ErrNoRows, IsNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "patients_national_id_key"}, IsConflict},
		{"fk missing parent", &pgconn.PgError{Code: "23503", Message: "insert or update on table \"appointments\" violates foreign key constraint", ConstraintName: "appointments_patient_id_fkey"}, IsNotFound},
		{"fk blocked delete", &pgconn.PgError{Code: "23503", Message: "update or delete on table \"doctors\" violates foreign key constraint", TableName: "doctors", ConstraintName: "appointments_doctor_id_fkey"}, IsConflict},
		{"check violation", &pgconn.PgError{Code: "23514", ConstraintName: "appointments_window_check"}, IsValidation},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, IsTransient},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, IsTransient},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, IsTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromPG(tt.err, "appointment", "a1")
			if !tt.pred(got) {
				t.Errorf("FromPG(%v) = %v, wrong taxonomy", tt.err, got)
			}
		})
	}
}

func TestFromPG_Passthrough(t *testing.T) {
	plain := errors.New("connection refused")
	if got := FromPG(plain, "appointment", ""); got != plain {
		t.Errorf("expected unrecognized error to pass through, got %v", got)
	}
	if got := FromPG(nil, "appointment", ""); got != nil {
		t.Errorf("expected nil to pass through, got %v", got)
	}
}

func TestFromPG_MissingParentEntity(t *testing.T) {
	err := FromPG(&pgconn.PgError{
		Code:           "23503",
		Message:        "insert or update on table \"appointments\" violates foreign key constraint",
		ConstraintName: "appointments_doctor_id_fkey",
	}, "appointment", "")

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
	if nf.Entity != "doctor" {
		t.Errorf("expected entity doctor, got %q", nf.Entity)
	}
}

func TestRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return Transient(errors.New("lock timeout"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetry_NoRetryOnPermanentError(t *testing.T) {
	calls := 0
	want := Conflict("overlap")
	err := Retry(context.Background(), 3, func(ctx context.Context) error {
		calls++
		return want
	})
	if err != want {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func(ctx context.Context) error {
		calls++
		return Transient(errors.New("deadlock"))
	})
	if !IsTransient(err) {
		t.Fatalf("expected transient error after exhaustion, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, func(ctx context.Context) error {
		return Transient(errors.New("lock timeout"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
