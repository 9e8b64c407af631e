package storage

import (
	"context"

	"subscanFeed/internal/model"
)

// Storage defines a sink for normalized events.
type Storage interface {
	PutEventBatch(ctx context.Context, events []model.NormalizedEvent) error
}
