package usecase

import (
	"enroute-service/internal/domain/entity"
)

// NotificationTemplate renders one kind of store change into an outbound notification
type NotificationTemplate interface {
	// CanHandle determines if this template renders the given change
	CanHandle(change entity.Change) bool

	// Render builds the notification; airport is the airport the change concerns.
	// A nil result means nothing should be sent.
	Render(change entity.Change, airport *entity.Airport) *entity.Notification
}

// TemplateRouter routes changes to the appropriate template
type TemplateRouter interface {
	// Register registers a template
	Register(template NotificationTemplate)

	// GetTemplate returns the first template able to render change
	GetTemplate(change entity.Change) NotificationTemplate
}
