package repository

import (
	"context"
	"fmt"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAirportStore implements AirportStore on two MongoDB collections
type MongoAirportStore struct {
	airports *mongo.Collection
	flights  *mongo.Collection
}

// NewMongoAirportStore creates a new airport store and its indexes
func NewMongoAirportStore(ctx context.Context, db *mongo.Database) (repository.AirportStore, error) {
	airports := db.Collection("airports")
	flights := db.Collection("flights")

	// Unique index on icao
	if _, err := airports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"icao": 1},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, fmt.Errorf("failed to create airport index: %w", err)
	}

	// Unique index on key, plus endpoint indexes for relationship lookups
	if _, err := flights.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"key": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"destinationIcao": 1}},
		{Keys: bson.M{"originIcao": 1}},
		{Keys: bson.M{"lastSeenAt": 1}},
	}); err != nil {
		return nil, fmt.Errorf("failed to create flight indexes: %w", err)
	}

	return &MongoAirportStore{
		airports: airports,
		flights:  flights,
	}, nil
}

// Load reads every airport and flight
func (r *MongoAirportStore) Load(ctx context.Context) ([]entity.Airport, []entity.FlightRecord, error) {
	airportCursor, err := r.airports.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "location", Value: 1}}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find airports: %w", err)
	}
	var airports []entity.Airport
	if err := airportCursor.All(ctx, &airports); err != nil {
		return nil, nil, fmt.Errorf("failed to decode airports: %w", err)
	}

	flightCursor, err := r.flights.Find(ctx, bson.M{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find flights: %w", err)
	}
	var flights []entity.FlightRecord
	if err := flightCursor.All(ctx, &flights); err != nil {
		return nil, nil, fmt.Errorf("failed to decode flights: %w", err)
	}

	return airports, flights, nil
}

// SaveChanges upserts airports and flights by key and removes deleted flights
func (r *MongoAirportStore) SaveChanges(ctx context.Context, changes entity.ChangeSet) error {
	if len(changes.Airports) > 0 {
		models := make([]mongo.WriteModel, 0, len(changes.Airports))
		for _, a := range changes.Airports {
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"icao": a.ICAO}).
				SetUpdate(bson.M{
					"$set": bson.M{
						"name":      a.Name,
						"location":  a.Location,
						"timezone":  a.Timezone,
						"latitude":  a.Latitude,
						"longitude": a.Longitude,
						"updatedAt": a.UpdatedAt,
					},
					"$setOnInsert": bson.M{"createdAt": a.CreatedAt},
				}).
				SetUpsert(true))
		}
		if _, err := r.airports.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("failed to upsert airports: %w", err)
		}
	}

	if len(changes.Flights) > 0 {
		models := make([]mongo.WriteModel, 0, len(changes.Flights))
		for _, f := range changes.Flights {
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M{"key": f.Key}).
				SetReplacement(f).
				SetUpsert(true))
		}
		if _, err := r.flights.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("failed to upsert flights: %w", err)
		}
	}

	if len(changes.DeletedFlights) > 0 {
		if _, err := r.flights.DeleteMany(ctx, bson.M{"key": bson.M{"$in": changes.DeletedFlights}}); err != nil {
			return fmt.Errorf("failed to delete flights: %w", err)
		}
	}

	return nil
}

// Close disconnects the underlying client
func (r *MongoAirportStore) Close(ctx context.Context) error {
	return r.airports.Database().Client().Disconnect(ctx)
}
