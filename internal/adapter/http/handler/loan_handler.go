package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/loanledger/internal/adapter/http/dto"
	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/infrastructure/metrics"
)

// ScheduleHistoryService defines the behavior needed by LoanHandler.
type ScheduleHistoryService interface {
	RetrieveArchiveSchedule(ctx context.Context, loanID string) (*domain.ReconstructedSchedule, error)
	FetchCurrentVersion(ctx context.Context, loanID string) (int, error)
}

// LoanHandler serves archived repayment schedules.
type LoanHandler struct {
	historyUC ScheduleHistoryService
	metrics   *metrics.Metrics
}

// NewLoanHandler creates a new LoanHandler. m may be nil.
func NewLoanHandler(historyUC ScheduleHistoryService, m *metrics.Metrics) *LoanHandler {
	return &LoanHandler{historyUC: historyUC, metrics: m}
}

// ScheduleHistory rebuilds the latest archived schedule of a loan. A loan
// that was never rescheduled has no archive and gets 204.
func (h *LoanHandler) ScheduleHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	schedule, err := h.historyUC.RetrieveArchiveSchedule(r.Context(), chi.URLParam(r, "id"))

	switch {
	case err != nil:
		h.observe(reconstructionResult(err), start)
		writeError(w, mapDomainError(err), "failed to retrieve schedule history", err.Error())
	case schedule == nil:
		h.observe("no_archive", start)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.observe("ok", start)
		writeJSON(w, http.StatusOK, dto.ScheduleFromDomain(schedule))
	}
}

// ScheduleVersion returns the latest archived schedule version of a loan.
func (h *LoanHandler) ScheduleVersion(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")

	version, err := h.historyUC.FetchCurrentVersion(r.Context(), loanID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to fetch schedule version", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduleVersionResponse{LoanID: loanID, Version: version})
}

func reconstructionResult(err error) string {
	if mapDomainError(err) == http.StatusNotFound {
		return "not_found"
	}
	return "error"
}

func (h *LoanHandler) observe(result string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.ScheduleReconstructions.WithLabelValues(result).Inc()
	h.metrics.ReconstructionDuration.Observe(time.Since(start).Seconds())
}
