package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"enroute-service/internal/domain/entity"
	"enroute-service/internal/domain/repository"
	"enroute-service/pkg/logger"
)

// WebhookRepository posts change notifications to an HTTP endpoint
type WebhookRepository struct {
	logger      logger.Logger
	url         string
	bearerToken string
	client      *http.Client
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(url, bearerToken string, logger logger.Logger) repository.NotificationRepository {
	return &WebhookRepository{
		logger:      logger,
		url:         url,
		bearerToken: bearerToken,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Send posts the notification as JSON
func (r *WebhookRepository) Send(ctx context.Context, notification *entity.Notification) error {
	jsonData, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if r.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearerToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	r.logger.Info("Notification delivered",
		"id", notification.ID,
		"type", notification.Type,
		"airport", notification.Airport,
		"flightKey", notification.FlightKey)
	return nil
}

// LogNotificationRepository writes notifications to the log; used when no
// webhook is configured.
type LogNotificationRepository struct {
	logger logger.Logger
}

// NewLogNotificationRepository creates a new log notification repository
func NewLogNotificationRepository(logger logger.Logger) repository.NotificationRepository {
	return &LogNotificationRepository{logger: logger}
}

func (r *LogNotificationRepository) Send(ctx context.Context, notification *entity.Notification) error {
	r.logger.Info("Notification", "type", notification.Type, "airport", notification.Airport, "text", notification.Text)
	return nil
}
