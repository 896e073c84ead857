package repository

import (
	"context"

	"enroute-service/internal/domain/entity"
)

// NotificationRepository defines the interface for outbound change notifications
type NotificationRepository interface {
	Send(ctx context.Context, notification *entity.Notification) error
}
