package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/loanledger/internal/adapter/http/dto"
)

func okCheck(ctx context.Context) error { return nil }

func TestHealthHandlerLiveness(t *testing.T) {
	h := NewHealthHandler()
	rec := httptest.NewRecorder()

	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandlerReadiness(t *testing.T) {
	h := NewHealthHandler(
		DependencyCheck{Name: "postgres", Check: okCheck},
		DependencyCheck{Name: "redis", Check: okCheck},
	)
	rec := httptest.NewRecorder()

	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["postgres"] != "ok" || body["redis"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHealthHandlerReadinessReportsFailingDependency(t *testing.T) {
	redisCalled := false
	h := NewHealthHandler(
		DependencyCheck{Name: "postgres", Check: func(ctx context.Context) error {
			return errors.New("connection refused")
		}},
		DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
			redisCalled = true
			return nil
		}},
	)
	rec := httptest.NewRecorder()

	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "postgres unhealthy" {
		t.Fatalf("unexpected error %q", body.Error)
	}
	if redisCalled {
		t.Fatal("checks after the first failure should not run")
	}
}
