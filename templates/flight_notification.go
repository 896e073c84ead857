package templates

import (
	"fmt"
	"strings"

	"enroute-service/internal/domain/entity"
	"enroute-service/pkg/utils"
)

// FlightChangedTemplate renders updates to a live flight
type FlightChangedTemplate struct{}

// NewFlightChangedTemplate creates a new flight changed template
func NewFlightChangedTemplate() *FlightChangedTemplate {
	return &FlightChangedTemplate{}
}

// CanHandle accepts flight changes that still have a record
func (t *FlightChangedTemplate) CanHandle(change entity.Change) bool {
	return change.Ref.Kind == entity.KindFlight && !change.Deleted && change.Flight != nil
}

// Render builds a one-line summary with times in the destination's zone
func (t *FlightChangedTemplate) Render(change entity.Change, airport *entity.Airport) *entity.Notification {
	f := change.Flight
	zone := ""
	destination := f.DestinationICAO
	if airport != nil {
		zone = airport.Timezone
		destination = airport.FriendlyName()
	}

	var sb strings.Builder
	sb.WriteString(identOf(f))
	if f.Operator != "" {
		sb.WriteString(" (" + f.Operator + ")")
	}
	if f.OriginICAO != "" {
		sb.WriteString(" from " + f.OriginICAO)
	}
	sb.WriteString(" to " + destination)
	if f.Status != "" {
		sb.WriteString(": " + f.Status)
	}
	switch {
	case f.ActualArrival != nil:
		sb.WriteString(", arrived " + utils.FormatInZone(f.ActualArrival, zone))
	case f.EstimatedArrival != nil:
		sb.WriteString(", ETA " + utils.FormatInZone(f.EstimatedArrival, zone))
	case f.ScheduledArrival != nil:
		sb.WriteString(", scheduled " + utils.FormatInZone(f.ScheduledArrival, zone))
	}

	return &entity.Notification{
		Type:      entity.FlightChanged,
		Airport:   f.DestinationICAO,
		FlightKey: f.Key,
		Text:      sb.String(),
		Metadata: map[string]string{
			"ident":  f.Ident,
			"origin": f.OriginICAO,
			"status": f.Status,
		},
	}
}

// FlightRemovedTemplate renders flights dropped from the store
type FlightRemovedTemplate struct{}

// NewFlightRemovedTemplate creates a new flight removed template
func NewFlightRemovedTemplate() *FlightRemovedTemplate {
	return &FlightRemovedTemplate{}
}

func (t *FlightRemovedTemplate) CanHandle(change entity.Change) bool {
	return change.Ref.Kind == entity.KindFlight && change.Deleted
}

func (t *FlightRemovedTemplate) Render(change entity.Change, airport *entity.Airport) *entity.Notification {
	code := ""
	if airport != nil {
		code = airport.ICAO
	}
	return &entity.Notification{
		Type:      entity.FlightRemoved,
		Airport:   code,
		FlightKey: change.Ref.Key,
		Text:      fmt.Sprintf("Flight %s is no longer tracked at %s", change.Ref.Key, code),
	}
}

func identOf(f *entity.FlightRecord) string {
	if f.Ident != "" {
		return f.Ident
	}
	return f.Key
}
