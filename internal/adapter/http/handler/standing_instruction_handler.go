package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/loanledger/internal/adapter/http/dto"
	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

// StandingInstructionService defines the behavior needed by StandingInstructionHandler.
type StandingInstructionService interface {
	Create(ctx context.Context, input usecase.CreateStandingInstructionInput) (*domain.StandingInstruction, error)
	Get(ctx context.Context, id string) (*domain.StandingInstruction, error)
	List(ctx context.Context, input usecase.ListStandingInstructionsInput) ([]*domain.StandingInstruction, error)
	Delete(ctx context.Context, id string) error
	ListHistory(ctx context.Context, instructionID string, limit, offset int) ([]*domain.TransferOutcome, error)
}

// InstructionRunner triggers a scheduler pass on demand.
type InstructionRunner interface {
	RunOnce(ctx context.Context) (*usecase.BatchRunReport, error)
	RunDate(ctx context.Context, runDate time.Time) (*usecase.BatchRunReport, error)
}

// StandingInstructionHandler handles standing instruction HTTP requests.
type StandingInstructionHandler struct {
	instructionUC StandingInstructionService
	runner        InstructionRunner
}

// NewStandingInstructionHandler creates a new StandingInstructionHandler.
func NewStandingInstructionHandler(instructionUC StandingInstructionService, runner InstructionRunner) *StandingInstructionHandler {
	return &StandingInstructionHandler{
		instructionUC: instructionUC,
		runner:        runner,
	}
}

// Create creates a new standing instruction.
func (h *StandingInstructionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateStandingInstructionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	si, err := h.instructionUC.Create(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create standing instruction", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.StandingInstructionFromDomain(si))
}

// Get retrieves a standing instruction by ID.
func (h *StandingInstructionHandler) Get(w http.ResponseWriter, r *http.Request) {
	si, err := h.instructionUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get standing instruction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.StandingInstructionFromDomain(si))
}

// List lists standing instructions, filtered by ?status=.
func (h *StandingInstructionHandler) List(w http.ResponseWriter, r *http.Request) {
	instructions, err := h.instructionUC.List(r.Context(), usecase.ListStandingInstructionsInput{
		Status: domain.InstructionStatus(r.URL.Query().Get("status")),
		Limit:  parseIntQuery(r, "limit", usecase.DefaultPageSize),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list standing instructions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListStandingInstructionsResponse{
		Instructions: dto.StandingInstructionsFromDomain(instructions),
		Total:        int64(len(instructions)),
	})
}

// Delete soft-deletes a standing instruction.
func (h *StandingInstructionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.instructionUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, mapDomainError(err), "failed to delete standing instruction", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// History lists the transfer attempts of a standing instruction.
func (h *StandingInstructionHandler) History(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.instructionUC.ListHistory(
		r.Context(),
		chi.URLParam(r, "id"),
		parseIntQuery(r, "limit", usecase.DefaultPageSize),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list standing instruction history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferOutcomesFromDomain(outcomes))
}

// Run triggers a scheduler pass. Failed instructions do not fail the
// request; they are listed in the report.
func (h *StandingInstructionHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.RunInstructionsRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	runDate, err := req.RunDate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var report *usecase.BatchRunReport
	if runDate.IsZero() {
		report, err = h.runner.RunOnce(r.Context())
	} else {
		report, err = h.runner.RunDate(r.Context(), runDate)
	}

	var batchErr *usecase.BatchRunError
	if err != nil && !(errors.As(err, &batchErr) && report != nil) {
		writeError(w, mapDomainError(err), "failed to run standing instructions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RunReportFromUseCase(report))
}
