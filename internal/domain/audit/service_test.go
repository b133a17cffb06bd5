package audit

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/middleware"
)

type mockRepo struct {
	entries []*Entry
	err     error
}

func (m *mockRepo) Create(ctx context.Context, e *Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepo) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Entry, int, error) {
	return m.entries, len(m.entries), m.err
}

func TestRecord_PersistsEntry(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.New(os.Stderr))

	ctx := context.WithValue(context.Background(), auth.UserIDKey, "not-a-uuid")
	svc.Record(ctx, "create", "appointment", "appt-1", map[string]string{"status": "scheduled"})

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Action != "create" || e.Entity != "appointment" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.EntityID == nil || *e.EntityID != "appt-1" {
		t.Errorf("expected entity_id appt-1, got %v", e.EntityID)
	}
	if e.UserID != nil {
		t.Error("expected nil user_id for unparseable subject")
	}
	if e.Detail == nil {
		t.Fatal("expected detail to be recorded")
	}
}

func TestRecord_RepoFailureIsSwallowed(t *testing.T) {
	repo := &mockRepo{err: errors.New("connection refused")}
	svc := NewService(repo, zerolog.New(os.Stderr))

	// Must not panic or surface the error
	svc.Record(context.Background(), "delete", "room", "r-1", nil)
}

func TestRecordAccess_MapsMiddlewareEntry(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.New(os.Stderr))

	err := svc.RecordAccess(context.Background(), middleware.AuditEntry{
		Action:     "update",
		Entity:     "patients",
		EntityID:   "p-9",
		RequestID:  "req-1",
		Method:     "PUT",
		Path:       "/api/v1/patients/p-9",
		StatusCode: 200,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.Action != "update" || e.Entity != "patients" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.RequestID == nil || *e.RequestID != "req-1" {
		t.Errorf("expected request_id req-1, got %v", e.RequestID)
	}
	if e.Detail == nil {
		t.Error("expected request detail to be recorded")
	}
}
