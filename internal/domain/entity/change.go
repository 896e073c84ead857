package entity

import "fmt"

// EntityKind identifies which record type a change refers to.
type EntityKind int

const (
	KindAirport EntityKind = iota
	KindFlight
)

func (k EntityKind) String() string {
	if k == KindAirport {
		return "airport"
	}
	return "flight"
}

// EntityRef names a single record in the store.
type EntityRef struct {
	Kind EntityKind
	Key  string
}

func AirportRef(icao string) EntityRef {
	return EntityRef{Kind: KindAirport, Key: icao}
}

func FlightRef(key string) EntityRef {
	return EntityRef{Kind: KindFlight, Key: key}
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.Key)
}

// Change is emitted once per mutated record after a successful save.
type Change struct {
	Ref     EntityRef
	Deleted bool
	// Airport or Flight holds a snapshot of the record after the save.
	Airport *Airport
	Flight  *FlightRecord
}

// ChangeSet is what a save hands to the backend.
type ChangeSet struct {
	Airports       []Airport
	Flights        []FlightRecord
	DeletedFlights []string
}

func (c ChangeSet) Empty() bool {
	return len(c.Airports) == 0 && len(c.Flights) == 0 && len(c.DeletedFlights) == 0
}
