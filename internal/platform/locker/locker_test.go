package locker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNoop_RunsFunction(t *testing.T) {
	l := NewNoop()

	called := false
	err := l.WithDoctorLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		called = true
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected fn to be called")
	}
}

func TestNoop_PropagatesError(t *testing.T) {
	l := NewNoop()

	want := errors.New("boom")
	err := l.WithDoctorLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		return want
	})

	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}
