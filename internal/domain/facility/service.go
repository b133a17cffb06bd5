package facility

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/apperr"
)

// Recorder writes entity-level audit entries. Satisfied by the audit
// service.
type Recorder interface {
	Record(ctx context.Context, action, entity, entityID string, detail interface{})
}

type Service struct {
	rooms Repository
	audit Recorder
}

func NewService(rooms Repository, audit Recorder) *Service {
	return &Service{rooms: rooms, audit: audit}
}

func (s *Service) Create(ctx context.Context, room *Room) error {
	if room.RoomNumber == "" {
		return apperr.Validation("room_number is required")
	}
	room.Active = true
	if err := s.rooms.Create(ctx, room); err != nil {
		return err
	}
	s.audit.Record(ctx, "room.create", "room", room.ID.String(), map[string]string{"room_number": room.RoomNumber})
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Room, int, error) {
	return s.rooms.List(ctx, params, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, room *Room) (*Room, error) {
	existing, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if room.RoomNumber != "" {
		existing.RoomNumber = room.RoomNumber
	}
	if room.Name != nil {
		existing.Name = room.Name
	}
	if room.Floor != nil {
		existing.Floor = room.Floor
	}
	existing.Active = room.Active

	if err := s.rooms.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, "room.update", "room", existing.ID.String(), nil)
	return existing, nil
}

// Delete removes a room. Appointment references are cleared by the FK,
// not deleted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rooms.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, "room.delete", "room", id.String(), nil)
	return nil
}
