package repository

import (
	"context"
	"fmt"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAirportStore implements the AirportStore interface on PostgreSQL
type GormAirportStore struct {
	db *gorm.DB
}

// Airports GORM model for database mapping
type Airports struct {
	ICAO      string   `gorm:"column:icao;primaryKey"`
	Name      string   `gorm:"column:name"`
	Location  string   `gorm:"column:location;index"`
	Timezone  string   `gorm:"column:timezone"`
	Latitude  *float64 `gorm:"column:latitude"`
	Longitude *float64 `gorm:"column:longitude"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Airports) TableName() string {
	return "airports"
}

// Flights GORM model for database mapping
type Flights struct {
	Key              string     `gorm:"column:key;primaryKey"`
	Ident            string     `gorm:"column:ident"`
	Operator         string     `gorm:"column:operator"`
	AircraftType     string     `gorm:"column:aircraft_type"`
	OriginICAO       string     `gorm:"column:origin_icao;index"`
	DestinationICAO  string     `gorm:"column:destination_icao;index"`
	ScheduledArrival *time.Time `gorm:"column:scheduled_arrival"`
	EstimatedArrival *time.Time `gorm:"column:estimated_arrival"`
	ActualArrival    *time.Time `gorm:"column:actual_arrival"`
	ActualDeparture  *time.Time `gorm:"column:actual_departure"`
	Status           string     `gorm:"column:status"`
	LastSeenAt       time.Time  `gorm:"column:last_seen_at;index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName overrides the default table name
func (Flights) TableName() string {
	return "flights"
}

// NewGormAirportStore creates a new GORM airport store and migrates its tables
func NewGormAirportStore(db *gorm.DB) (repository.AirportStore, error) {
	if err := db.AutoMigrate(&Airports{}, &Flights{}); err != nil {
		return nil, fmt.Errorf("failed to migrate airport tables: %w", err)
	}
	return &GormAirportStore{
		db: db,
	}, nil
}

// Load reads every airport and flight
func (r *GormAirportStore) Load(ctx context.Context) ([]entity.Airport, []entity.FlightRecord, error) {
	var airportRows []Airports
	if result := r.db.WithContext(ctx).Order("location").Find(&airportRows); result.Error != nil {
		return nil, nil, result.Error
	}
	var flightRows []Flights
	if result := r.db.WithContext(ctx).Find(&flightRows); result.Error != nil {
		return nil, nil, result.Error
	}

	// Convert GORM models to domain entities
	airports := make([]entity.Airport, 0, len(airportRows))
	for _, row := range airportRows {
		airports = append(airports, entity.Airport{
			ICAO:      row.ICAO,
			Name:      row.Name,
			Location:  row.Location,
			Timezone:  row.Timezone,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	flights := make([]entity.FlightRecord, 0, len(flightRows))
	for _, row := range flightRows {
		flights = append(flights, entity.FlightRecord{
			Key:              row.Key,
			Ident:            row.Ident,
			Operator:         row.Operator,
			AircraftType:     row.AircraftType,
			OriginICAO:       row.OriginICAO,
			DestinationICAO:  row.DestinationICAO,
			ScheduledArrival: row.ScheduledArrival,
			EstimatedArrival: row.EstimatedArrival,
			ActualArrival:    row.ActualArrival,
			ActualDeparture:  row.ActualDeparture,
			Status:           row.Status,
			LastSeenAt:       row.LastSeenAt,
			CreatedAt:        row.CreatedAt,
			UpdatedAt:        row.UpdatedAt,
		})
	}
	return airports, flights, nil
}

// SaveChanges writes the change set in one database transaction
func (r *GormAirportStore) SaveChanges(ctx context.Context, changes entity.ChangeSet) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(changes.Airports) > 0 {
			rows := make([]Airports, 0, len(changes.Airports))
			for _, a := range changes.Airports {
				rows = append(rows, Airports{
					ICAO:      a.ICAO,
					Name:      a.Name,
					Location:  a.Location,
					Timezone:  a.Timezone,
					Latitude:  a.Latitude,
					Longitude: a.Longitude,
					CreatedAt: a.CreatedAt,
					UpdatedAt: a.UpdatedAt,
				})
			}
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "icao"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "location", "timezone", "latitude", "longitude", "updated_at"}),
			}).Create(&rows)
			if result.Error != nil {
				return fmt.Errorf("failed to upsert airports: %w", result.Error)
			}
		}

		if len(changes.Flights) > 0 {
			rows := make([]Flights, 0, len(changes.Flights))
			for _, f := range changes.Flights {
				rows = append(rows, Flights{
					Key:              f.Key,
					Ident:            f.Ident,
					Operator:         f.Operator,
					AircraftType:     f.AircraftType,
					OriginICAO:       f.OriginICAO,
					DestinationICAO:  f.DestinationICAO,
					ScheduledArrival: f.ScheduledArrival,
					EstimatedArrival: f.EstimatedArrival,
					ActualArrival:    f.ActualArrival,
					ActualDeparture:  f.ActualDeparture,
					Status:           f.Status,
					LastSeenAt:       f.LastSeenAt,
					CreatedAt:        f.CreatedAt,
					UpdatedAt:        f.UpdatedAt,
				})
			}
			result := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"ident", "operator", "aircraft_type", "origin_icao", "destination_icao",
					"scheduled_arrival", "estimated_arrival", "actual_arrival", "actual_departure",
					"status", "last_seen_at", "updated_at",
				}),
			}).Create(&rows)
			if result.Error != nil {
				return fmt.Errorf("failed to upsert flights: %w", result.Error)
			}
		}

		if len(changes.DeletedFlights) > 0 {
			if result := tx.Where("key IN ?", changes.DeletedFlights).Delete(&Flights{}); result.Error != nil {
				return fmt.Errorf("failed to delete flights: %w", result.Error)
			}
		}
		return nil
	})
}

// Close closes the connection pool
func (r *GormAirportStore) Close(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
