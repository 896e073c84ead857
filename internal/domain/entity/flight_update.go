package entity

import "time"

// FlightUpdate is one parsed flight report from a poll tick.
type FlightUpdate struct {
	Key              string
	Ident            string
	Operator         string
	AircraftType     string
	OriginICAO       string
	DestinationICAO  string
	ScheduledArrival *time.Time
	EstimatedArrival *time.Time
	ActualArrival    *time.Time
	ActualDeparture  *time.Time
	Status           string
}

// FlightBatch is everything one poll tick returned, in provider order.
type FlightBatch struct {
	ID          string
	AirportICAO string
	Source      string
	FetchedAt   time.Time
	Updates     []FlightUpdate
}
