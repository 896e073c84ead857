// internal/domain/entity/airport.go
package entity

import (
	"strings"
	"time"

	"enroute-service/pkg/utils"
)

// Airport is the cached record for one airport, keyed by ICAO code.
type Airport struct {
	ICAO      string   `bson:"icao" json:"icao"`
	Name      string   `bson:"name" json:"name,omitempty"`
	Location  string   `bson:"location" json:"location,omitempty"`
	Timezone  string   `bson:"timezone" json:"timezone,omitempty"`
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`

	// Relationship sets are rebuilt from flight endpoints on load.
	FlightsTo   FlightSet `bson:"-" json:"flightsTo"`
	FlightsFrom FlightSet `bson:"-" json:"flightsFrom"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NormalizeICAO trims and upper-cases an airport code.
func NormalizeICAO(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FriendlyName returns a display label built from location and name,
// or the ICAO code when neither is known.
func (a *Airport) FriendlyName() string {
	friendly := utils.FriendlyAirportName(a.Name, a.Location)
	if friendly == "" {
		return a.ICAO
	}
	return friendly
}

// SortKey is the value airports are ordered by.
func (a *Airport) SortKey() string {
	if a.Location != "" {
		return a.Location
	}
	return a.FriendlyName()
}

// Less orders airports by location, then by ICAO for stability.
func (a *Airport) Less(other *Airport) bool {
	ka, kb := a.SortKey(), other.SortKey()
	if ka != kb {
		return ka < kb
	}
	return a.ICAO < other.ICAO
}

// HasMetadata reports whether asynchronous metadata has been applied.
func (a *Airport) HasMetadata() bool {
	return a.Name != "" || a.Location != "" || a.Timezone != "" || a.Latitude != nil || a.Longitude != nil
}

// Clone returns a deep copy safe to hand outside the store context.
func (a *Airport) Clone() Airport {
	c := *a
	c.FlightsTo = a.FlightsTo.Clone()
	c.FlightsFrom = a.FlightsFrom.Clone()
	if a.Latitude != nil {
		lat := *a.Latitude
		c.Latitude = &lat
	}
	if a.Longitude != nil {
		lon := *a.Longitude
		c.Longitude = &lon
	}
	return c
}

// ApplyInfo overwrites the metadata fields from info. ICAO is never changed.
func (a *Airport) ApplyInfo(info AirportInfo) {
	a.Name = info.Name
	a.Location = info.Location
	a.Timezone = info.Timezone
	a.Latitude = info.Latitude
	a.Longitude = info.Longitude
}
