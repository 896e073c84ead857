// internal/domain/entity/flight_record.go
package entity

import (
	"time"
)

// FlightRecord is one flight leg as last reported by the provider.
type FlightRecord struct {
	Key              string     `bson:"key" json:"key"` // provider flight id - unique index
	Ident            string     `bson:"ident" json:"ident,omitempty"`
	Operator         string     `bson:"operator" json:"operator,omitempty"`
	AircraftType     string     `bson:"aircraftType" json:"aircraftType,omitempty"`
	OriginICAO       string     `bson:"originIcao" json:"originIcao"`
	DestinationICAO  string     `bson:"destinationIcao" json:"destinationIcao"`
	ScheduledArrival *time.Time `bson:"scheduledArrival,omitempty" json:"scheduledArrival,omitempty"`
	EstimatedArrival *time.Time `bson:"estimatedArrival,omitempty" json:"estimatedArrival,omitempty"`
	ActualArrival    *time.Time `bson:"actualArrival,omitempty" json:"actualArrival,omitempty"`
	ActualDeparture  *time.Time `bson:"actualDeparture,omitempty" json:"actualDeparture,omitempty"`
	Status           string     `bson:"status" json:"status"`
	LastSeenAt       time.Time  `bson:"lastSeenAt" json:"lastSeenAt"`
	CreatedAt        time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Apply overwrites every mutable field from u. Key is never changed.
func (f *FlightRecord) Apply(u FlightUpdate) {
	f.Ident = u.Ident
	f.Operator = u.Operator
	f.AircraftType = u.AircraftType
	f.OriginICAO = NormalizeICAO(u.OriginICAO)
	f.DestinationICAO = NormalizeICAO(u.DestinationICAO)
	f.ScheduledArrival = copyTime(u.ScheduledArrival)
	f.EstimatedArrival = copyTime(u.EstimatedArrival)
	f.ActualArrival = copyTime(u.ActualArrival)
	f.ActualDeparture = copyTime(u.ActualDeparture)
	f.Status = u.Status
}

// IsEnRoute reports whether the flight has departed and not yet arrived.
func (f *FlightRecord) IsEnRoute() bool {
	return f.ActualDeparture != nil && f.ActualArrival == nil
}

// Clone returns a deep copy safe to hand outside the store context.
func (f *FlightRecord) Clone() FlightRecord {
	c := *f
	c.ScheduledArrival = copyTime(f.ScheduledArrival)
	c.EstimatedArrival = copyTime(f.EstimatedArrival)
	c.ActualArrival = copyTime(f.ActualArrival)
	c.ActualDeparture = copyTime(f.ActualDeparture)
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
