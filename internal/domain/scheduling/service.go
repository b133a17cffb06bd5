package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/locker"
)

// Recorder writes entity-level audit entries. Satisfied by the audit
// service.
type Recorder interface {
	Record(ctx context.Context, action, entity, entityID string, detail interface{})
}

type Service struct {
	repo        Repository
	locker      locker.Locker
	audit       Recorder
	logger      zerolog.Logger
	maxAttempts int
}

// NewService creates the appointment service. maxAttempts bounds how
// many times a booking is retried after a transient storage failure.
func NewService(repo Repository, lk locker.Locker, audit Recorder, logger zerolog.Logger, maxAttempts int) *Service {
	if maxAttempts <= 0 {
		maxAttempts = apperr.DefaultAttempts
	}
	return &Service{repo: repo, locker: lk, audit: audit, logger: logger, maxAttempts: maxAttempts}
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("start_time and end_time are required")
	}
	if !end.After(start) {
		return apperr.Validation("end_time must be after start_time")
	}
	return nil
}

// withDoctorLock runs fn under the per-doctor lock with bounded retries.
// A lock that cannot be acquired counts as a transient failure and is
// retried like a lock timeout inside the transaction.
func (s *Service) withDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	err := apperr.Retry(ctx, s.maxAttempts, func(ctx context.Context) error {
		err := s.locker.WithDoctorLock(ctx, doctorID, fn)
		if errors.Is(err, locker.ErrNotAcquired) {
			return apperr.Transient(err)
		}
		return err
	})
	if apperr.IsTransient(err) {
		s.logger.Warn().Str("doctor_id", doctorID.String()).Int("attempts", s.maxAttempts).
			Err(err).Msg("booking retries exhausted")
	}
	return err
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return apperr.Validation("doctor_id is required")
	}
	if err := validateWindow(a.StartTime, a.EndTime); err != nil {
		return err
	}
	if a.Status != "" && a.Status != StatusScheduled {
		return apperr.Validation("new appointments must start in status %q", StatusScheduled)
	}
	a.Status = StatusScheduled

	err := s.withDoctorLock(ctx, a.DoctorID, func(ctx context.Context) error {
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "appointment.create", "appointment", a.ID.String(), map[string]string{
		"doctor_id":  a.DoctorID.String(),
		"patient_id": a.PatientID.String(),
		"start_time": a.StartTime.Format(time.RFC3339),
		"end_time":   a.EndTime.Format(time.RFC3339),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch *UpdateRequest) (*Appointment, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && !CanTransition(existing.Status, *patch.Status) {
		return nil, apperr.Validation("invalid status transition %s -> %s", existing.Status, *patch.Status)
	}
	if IsTerminal(existing.Status) && (patch.DoctorID != nil || patch.StartTime != nil || patch.EndTime != nil || patch.RoomID != nil) {
		return nil, apperr.Validation("cannot modify a %s appointment", existing.Status)
	}

	updated := *existing
	if patch.DoctorID != nil {
		updated.DoctorID = *patch.DoctorID
	}
	if patch.RoomID != nil {
		updated.RoomID = patch.RoomID
	}
	if patch.StartTime != nil {
		updated.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		updated.EndTime = *patch.EndTime
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	if patch.Reason != nil {
		updated.Reason = patch.Reason
	}
	if err := validateWindow(updated.StartTime, updated.EndTime); err != nil {
		return nil, err
	}

	// The overlap check reruns only when the doctor or the window moved;
	// a status change alone can never introduce an overlap because no
	// transition leaves the cancelled state.
	recheck := updated.DoctorID != existing.DoctorID ||
		!updated.StartTime.Equal(existing.StartTime) ||
		!updated.EndTime.Equal(existing.EndTime)

	if recheck {
		err = s.withDoctorLock(ctx, updated.DoctorID, func(ctx context.Context) error {
			return s.repo.Update(ctx, &updated, true)
		})
	} else {
		err = s.repo.Update(ctx, &updated, false)
	}
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "appointment.update", "appointment", updated.ID.String(), nil)
	return &updated, nil
}

// Cancel marks an appointment cancelled. Cancelling an already cancelled
// appointment is a no-op; a completed or no_show visit cannot be
// cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case StatusCancelled:
		return a, nil
	case StatusCompleted, StatusNoShow:
		return nil, apperr.Conflict("cannot cancel a %s appointment", a.Status)
	}

	a.Status = StatusCancelled
	if err := s.repo.Update(ctx, a, false); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "appointment.cancel", "appointment", a.ID.String(), nil)
	return a, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to *time.Time, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, from, to, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
