package router

import (
	"fmt"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/usecase"
	"enroute-service/pkg/logger"
)

// ChangeRouter routes store changes to notification templates
type ChangeRouter struct {
	templates []usecase.NotificationTemplate
	logger    logger.Logger
}

var _ usecase.TemplateRouter = (*ChangeRouter)(nil)

// NewChangeRouter creates a new change router
func NewChangeRouter(logger logger.Logger) *ChangeRouter {
	return &ChangeRouter{
		templates: make([]usecase.NotificationTemplate, 0),
		logger:    logger,
	}
}

// Register registers a template; earlier registrations win
func (r *ChangeRouter) Register(template usecase.NotificationTemplate) {
	r.templates = append(r.templates, template)
	r.logger.Info("Registered template", "template", fmt.Sprintf("%T", template))
}

// GetTemplate returns the appropriate template for a given change
func (r *ChangeRouter) GetTemplate(change entity.Change) usecase.NotificationTemplate {
	for _, template := range r.templates {
		if template.CanHandle(change) {
			return template
		}
	}
	return nil
}
