// internal/domain/entity/notification.go
package entity

import (
	"time"
)

// NotificationType defines the type of an outbound notification
type NotificationType string

const (
	FlightChanged  NotificationType = "flight_changed"
	FlightRemoved  NotificationType = "flight_removed"
	AirportChanged NotificationType = "airport_changed"
)

// Notification is the message delivered to an external observer
type Notification struct {
	ID        string            `json:"id"`
	Type      NotificationType  `json:"type"`
	Airport   string            `json:"airport"`
	FlightKey string            `json:"flightKey,omitempty"`
	Text      string            `json:"text"`
	CreatedAt time.Time         `json:"createdAt"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
