package audit

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Entry, int, error)
}
