package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"enroute-service/internal/domain/entity"
	"enroute-service/pkg/logger"
)

func TestWebhookRepositorySend(t *testing.T) {
	var got entity.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected request %s auth=%q", r.Method, r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	repo := NewWebhookRepository(srv.URL, "tok", logger.NewNop())
	err := repo.Send(context.Background(), &entity.Notification{ID: "n1", Type: entity.FlightChanged, Airport: "KSFO", Text: "UAL1 En Route"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.ID != "n1" || got.Text != "UAL1 En Route" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestWebhookRepositoryRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadGateway)
	}))
	defer srv.Close()

	repo := NewWebhookRepository(srv.URL, "", logger.NewNop())
	if err := repo.Send(context.Background(), &entity.Notification{ID: "n1"}); err == nil {
		t.Fatal("expected error")
	}
}
