package repository

import (
	"context"

	"enroute-service/internal/domain/entity"
)

// AirportInfoFetcher defines the one-shot remote airport metadata lookup
type AirportInfoFetcher interface {
	FetchAirportInfo(ctx context.Context, icao string) (*entity.AirportInfo, error)
}
