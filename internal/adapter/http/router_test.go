package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/loanledger/internal/adapter/http/handler"
	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/infrastructure/metrics"
	"github.com/iho/loanledger/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = m
		cfg.Gatherer = reg
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/loans/loan-1/schedulehistory", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `loanledger_http_requests_total{method="GET",path="/api/v1/loans/{id}/schedulehistory",status="204"} 1`) {
		t.Fatalf("expected request to be counted by route, got:\n%s", rec.Body.String())
	}
}

func TestNewRouter_NoArchiveReturns204(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/loans/loan-1/schedulehistory", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"POST /api/v1/standinginstructions/",
		"GET /api/v1/standinginstructions/",
		"POST /api/v1/standinginstructions/run",
		"GET /api/v1/standinginstructions/{id}",
		"DELETE /api/v1/standinginstructions/{id}",
		"GET /api/v1/standinginstructions/{id}/history",
		"GET /api/v1/transfers/{id}",
		"GET /api/v1/loans/{id}/schedulehistory",
		"GET /api/v1/loans/{id}/schedulehistory/version",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	cfg := RouterConfig{
		HealthHandler:              handler.NewHealthHandler(),
		AccountHandler:             handler.NewAccountHandler(stubAccountService{}),
		StandingInstructionHandler: handler.NewStandingInstructionHandler(stubInstructionService{}, stubRunner{}),
		LoanHandler:                handler.NewLoanHandler(stubScheduleHistory{}, nil),
		TransferHandler:            handler.NewTransferHandler(stubTransfers{}),
		Logger:                     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubAccountService struct{}

func (stubAccountService) OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
	return &domain.Account{ID: "acc"}, nil
}

func (stubAccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return &domain.Account{ID: id}, nil
}

type stubInstructionService struct{}

func (stubInstructionService) Create(ctx context.Context, input usecase.CreateStandingInstructionInput) (*domain.StandingInstruction, error) {
	return &domain.StandingInstruction{ID: "si"}, nil
}

func (stubInstructionService) Get(ctx context.Context, id string) (*domain.StandingInstruction, error) {
	return &domain.StandingInstruction{ID: id}, nil
}

func (stubInstructionService) List(ctx context.Context, input usecase.ListStandingInstructionsInput) ([]*domain.StandingInstruction, error) {
	return nil, nil
}

func (stubInstructionService) Delete(ctx context.Context, id string) error {
	return nil
}

func (stubInstructionService) ListHistory(ctx context.Context, instructionID string, limit, offset int) ([]*domain.TransferOutcome, error) {
	return nil, nil
}

type stubRunner struct{}

func (stubRunner) RunOnce(ctx context.Context) (*usecase.BatchRunReport, error) {
	return &usecase.BatchRunReport{}, nil
}

func (stubRunner) RunDate(ctx context.Context, runDate time.Time) (*usecase.BatchRunReport, error) {
	return &usecase.BatchRunReport{RunDate: runDate}, nil
}

type stubScheduleHistory struct{}

func (stubScheduleHistory) RetrieveArchiveSchedule(ctx context.Context, loanID string) (*domain.ReconstructedSchedule, error) {
	return nil, nil
}

func (stubScheduleHistory) FetchCurrentVersion(ctx context.Context, loanID string) (int, error) {
	return 0, nil
}

type stubTransfers struct{}

func (stubTransfers) GetTransfer(ctx context.Context, id string) (*domain.Transfer, []*domain.Entry, error) {
	return &domain.Transfer{ID: id}, nil, nil
}
