package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS airports (
	icao       TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	location   TEXT NOT NULL DEFAULT '',
	timezone   TEXT NOT NULL DEFAULT '',
	latitude   REAL,
	longitude  REAL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS flights (
	key               TEXT PRIMARY KEY,
	ident             TEXT NOT NULL DEFAULT '',
	operator          TEXT NOT NULL DEFAULT '',
	aircraft_type     TEXT NOT NULL DEFAULT '',
	origin_icao       TEXT NOT NULL DEFAULT '',
	destination_icao  TEXT NOT NULL DEFAULT '',
	scheduled_arrival TEXT,
	estimated_arrival TEXT,
	actual_arrival    TEXT,
	actual_departure  TEXT,
	status            TEXT NOT NULL DEFAULT '',
	last_seen_at      TEXT NOT NULL,
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS flights_destination_idx ON flights(destination_icao);
CREATE INDEX IF NOT EXISTS flights_last_seen_idx ON flights(last_seen_at);
`

// SQLiteAirportStore implements AirportStore on an embedded SQLite file
type SQLiteAirportStore struct {
	db *sql.DB
}

// NewSQLiteAirportStore creates the tables if needed
func NewSQLiteAirportStore(db *sql.DB) (repository.AirportStore, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteAirportStore{db: db}, nil
}

// DB exposes the underlying sql.DB for tests
func (r *SQLiteAirportStore) DB() *sql.DB { return r.db }

// Load reads every airport and flight
func (r *SQLiteAirportStore) Load(ctx context.Context) ([]entity.Airport, []entity.FlightRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT icao, name, location, timezone, latitude, longitude, created_at, updated_at FROM airports ORDER BY location`)
	if err != nil {
		return nil, nil, fmt.Errorf("select airports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var airports []entity.Airport
	for rows.Next() {
		var (
			a                    entity.Airport
			lat, lon             sql.NullFloat64
			createdAt, updatedAt string
		)
		if err := rows.Scan(&a.ICAO, &a.Name, &a.Location, &a.Timezone, &lat, &lon, &createdAt, &updatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan airport: %w", err)
		}
		a.Latitude = floatPtr(lat)
		a.Longitude = floatPtr(lon)
		a.CreatedAt = parseTime(createdAt)
		a.UpdatedAt = parseTime(updatedAt)
		airports = append(airports, a)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate airports: %w", err)
	}

	flightRows, err := r.db.QueryContext(ctx, `SELECT key, ident, operator, aircraft_type, origin_icao, destination_icao,
		scheduled_arrival, estimated_arrival, actual_arrival, actual_departure, status, last_seen_at, created_at, updated_at
		FROM flights ORDER BY key`)
	if err != nil {
		return nil, nil, fmt.Errorf("select flights: %w", err)
	}
	defer func() { _ = flightRows.Close() }()

	var flights []entity.FlightRecord
	for flightRows.Next() {
		var (
			f                                       entity.FlightRecord
			scheduled, estimated, actual, departure sql.NullString
			lastSeen, createdAt, updatedAt          string
		)
		if err := flightRows.Scan(&f.Key, &f.Ident, &f.Operator, &f.AircraftType, &f.OriginICAO, &f.DestinationICAO,
			&scheduled, &estimated, &actual, &departure, &f.Status, &lastSeen, &createdAt, &updatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan flight: %w", err)
		}
		f.ScheduledArrival = nullTime(scheduled)
		f.EstimatedArrival = nullTime(estimated)
		f.ActualArrival = nullTime(actual)
		f.ActualDeparture = nullTime(departure)
		f.LastSeenAt = parseTime(lastSeen)
		f.CreatedAt = parseTime(createdAt)
		f.UpdatedAt = parseTime(updatedAt)
		flights = append(flights, f)
	}
	if err := flightRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate flights: %w", err)
	}
	return airports, flights, nil
}

// SaveChanges writes the change set in one transaction
func (r *SQLiteAirportStore) SaveChanges(ctx context.Context, changes entity.ChangeSet) (retErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, a := range changes.Airports {
		if _, err := tx.ExecContext(ctx, `INSERT INTO airports(icao, name, location, timezone, latitude, longitude, created_at, updated_at)
			VALUES(?,?,?,?,?,?,?,?)
			ON CONFLICT(icao) DO UPDATE SET name=excluded.name, location=excluded.location, timezone=excluded.timezone,
			latitude=excluded.latitude, longitude=excluded.longitude, updated_at=excluded.updated_at`,
			a.ICAO, a.Name, a.Location, a.Timezone, a.Latitude, a.Longitude, formatTime(a.CreatedAt), formatTime(a.UpdatedAt)); err != nil {
			return fmt.Errorf("upsert airport %s: %w", a.ICAO, err)
		}
	}
	for _, f := range changes.Flights {
		if _, err := tx.ExecContext(ctx, `INSERT INTO flights(key, ident, operator, aircraft_type, origin_icao, destination_icao,
			scheduled_arrival, estimated_arrival, actual_arrival, actual_departure, status, last_seen_at, created_at, updated_at)
			VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(key) DO UPDATE SET ident=excluded.ident, operator=excluded.operator, aircraft_type=excluded.aircraft_type,
			origin_icao=excluded.origin_icao, destination_icao=excluded.destination_icao,
			scheduled_arrival=excluded.scheduled_arrival, estimated_arrival=excluded.estimated_arrival,
			actual_arrival=excluded.actual_arrival, actual_departure=excluded.actual_departure,
			status=excluded.status, last_seen_at=excluded.last_seen_at, updated_at=excluded.updated_at`,
			f.Key, f.Ident, f.Operator, f.AircraftType, f.OriginICAO, f.DestinationICAO,
			timeArg(f.ScheduledArrival), timeArg(f.EstimatedArrival), timeArg(f.ActualArrival), timeArg(f.ActualDeparture),
			f.Status, formatTime(f.LastSeenAt), formatTime(f.CreatedAt), formatTime(f.UpdatedAt)); err != nil {
			return fmt.Errorf("upsert flight %s: %w", f.Key, err)
		}
	}
	for _, key := range changes.DeletedFlights {
		if _, err := tx.ExecContext(ctx, `DELETE FROM flights WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete flight %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Close closes the database
func (r *SQLiteAirportStore) Close(ctx context.Context) error {
	return r.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
