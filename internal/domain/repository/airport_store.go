package repository

import (
	"context"

	"enroute-service/internal/domain/entity"
)

// AirportStore is the durable backend behind the store context.
type AirportStore interface {
	// Load returns every persisted airport and flight.
	Load(ctx context.Context) ([]entity.Airport, []entity.FlightRecord, error)
	// SaveChanges upserts airports and flights by key and deletes the listed flights.
	SaveChanges(ctx context.Context, changes entity.ChangeSet) error
	Close(ctx context.Context) error
}
