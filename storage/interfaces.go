package storage

import (
	"context"

	"event-dashboard/models"
)

// EventStore is the interface any storage backend must satisfy. Replace
// discards everything previously stored.
type EventStore interface {
	Replace(ctx context.Context, events []models.EventRecord) error
	CountByActor(ctx context.Context) ([]models.ActorCount, error)
	FetchAll(ctx context.Context) ([]models.EventRecord, error)
	Close() error
}
