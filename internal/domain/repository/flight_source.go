package repository

import (
	"context"
	"time"

	"enroute-service/internal/domain/entity"
)

// FlightSource defines a provider of flights inbound to an airport
type FlightSource interface {
	// Name returns a short provider name for logs and metrics.
	Name() string
	// FetchEnroute returns flights arriving at icao within lookahead, in provider order.
	FetchEnroute(ctx context.Context, icao string, lookahead time.Duration) ([]entity.FlightUpdate, error)
}
