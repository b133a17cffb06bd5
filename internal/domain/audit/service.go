package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/middleware"
)

// Service writes audit trail entries. Recording never fails the calling
// operation: persistence errors are logged and swallowed.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record persists a domain-level audit entry. The user is taken from the
// request context; detail is JSON-encoded when non-nil.
func (s *Service) Record(ctx context.Context, action, entity, entityID string, detail interface{}) {
	e := &Entry{
		Action: action,
		Entity: entity,
	}
	if entityID != "" {
		e.EntityID = &entityID
	}
	if uid, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
		e.UserID = &uid
	}
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			d := string(b)
			e.Detail = &d
		}
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.Warn().Err(err).
			Str("action", action).
			Str("entity", entity).
			Str("entity_id", entityID).
			Msg("failed to write audit entry")
	}
}

// RecordAccess implements middleware.AuditRecorder for request-level
// audit entries.
func (s *Service) RecordAccess(ctx context.Context, entry middleware.AuditEntry) error {
	e := &Entry{
		Action: entry.Action,
		Entity: entry.Entity,
	}
	if entry.EntityID != "" {
		id := entry.EntityID
		e.EntityID = &id
	}
	if entry.RequestID != "" {
		rid := entry.RequestID
		e.RequestID = &rid
	}
	if uid, err := uuid.Parse(entry.UserID); err == nil {
		e.UserID = &uid
	}

	detail, err := json.Marshal(map[string]interface{}{
		"method":    entry.Method,
		"path":      entry.Path,
		"status":    entry.StatusCode,
		"remote_ip": entry.IPAddress,
	})
	if err == nil {
		d := string(detail)
		e.Detail = &d
	}

	return s.repo.Create(ctx, e)
}

// Search returns audit entries matching the given filters.
func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Entry, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
