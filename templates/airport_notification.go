package templates

import (
	"fmt"

	"enroute-service/internal/domain/entity"
)

// AirportChangedTemplate announces airports once their metadata is known
type AirportChangedTemplate struct{}

// NewAirportChangedTemplate creates a new airport changed template
func NewAirportChangedTemplate() *AirportChangedTemplate {
	return &AirportChangedTemplate{}
}

func (t *AirportChangedTemplate) CanHandle(change entity.Change) bool {
	return change.Ref.Kind == entity.KindAirport && change.Airport != nil
}

// Render skips airports still waiting for metadata
func (t *AirportChangedTemplate) Render(change entity.Change, airport *entity.Airport) *entity.Notification {
	a := change.Airport
	if !a.HasMetadata() {
		return nil
	}
	return &entity.Notification{
		Type:    entity.AirportChanged,
		Airport: a.ICAO,
		Text:    fmt.Sprintf("Tracking %s (%s), %d incoming flights", a.FriendlyName(), a.ICAO, a.FlightsTo.Len()),
		Metadata: map[string]string{
			"name":     a.Name,
			"location": a.Location,
			"timezone": a.Timezone,
		},
	}
}
