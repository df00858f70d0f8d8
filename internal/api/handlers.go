/**
 * @description
 * This file contains the HTTP handlers for the investment-service's API endpoints.
 * Handlers parse incoming requests, call the lifecycle service or the accrual
 * engine, and map typed errors onto HTTP status codes.
 *
 * @dependencies
 * - encoding/json, net/http: Standard Go libraries.
 * - internal/app, internal/store: For service logic and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/growvest/investment-service/internal/app"
	"github.com/growvest/investment-service/internal/domain"
	"github.com/growvest/investment-service/internal/store"
)

// Handlers holds the application services that handlers will use.
type Handlers struct {
	service *app.Service
	engine  *app.AccrualEngine
	logger  *slog.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service, engine *app.AccrualEngine, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, engine: engine, logger: logger}
}

// decisionResponse confirms an applied lifecycle decision. The message and
// investment id fields mirror the contract the admin dashboard already consumes.
type decisionResponse struct {
	Message      string `json:"message"`
	InvestmentID string `json:"investmentId"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// ListInvestmentsByStatusHandler handles GET /investments/status?status=S.
// A known status with no matches returns 200 with an empty list; the legacy
// empty-means-404 behavior was deliberately dropped.
func (h *Handlers) ListInvestmentsByStatusHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		h.writeError(w, http.StatusBadRequest, "Status is required")
		return
	}

	investments, err := h.service.ListInvestmentsByStatus(r.Context(), status)
	if err != nil {
		if errors.Is(err, app.ErrInvalidStatus) {
			h.writeError(w, http.StatusBadRequest, "Invalid status provided")
			return
		}
		h.logger.Error("failed to list investments", "status", status, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, investments)
}

// GetInvestmentHandler handles GET /investments/{investmentID}.
func (h *Handlers) GetInvestmentHandler(w http.ResponseWriter, r *http.Request) {
	investmentID, err := uuid.Parse(chi.URLParam(r, "investmentID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid investment id")
		return
	}

	investment, err := h.service.GetInvestment(r.Context(), investmentID)
	if err != nil {
		if errors.Is(err, store.ErrInvestmentNotFound) {
			h.writeError(w, http.StatusNotFound, "Investment not found")
			return
		}
		h.logger.Error("failed to fetch investment", "investment_id", investmentID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, investment)
}

// DecideInvestmentHandler handles PUT /investmentControl/{investmentID}.
// The decision and comment arrive as query parameters, preserving the transport
// contract of the original dashboard.
func (h *Handlers) DecideInvestmentHandler(w http.ResponseWriter, r *http.Request) {
	investmentID, err := uuid.Parse(chi.URLParam(r, "investmentID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid investment id")
		return
	}
	decision := r.URL.Query().Get("status")
	comment := r.URL.Query().Get("comment")

	decided, err := h.service.Decide(r.Context(), investmentID, decision, comment)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidDecision):
			h.writeError(w, http.StatusBadRequest, "Invalid status provided")
		case errors.Is(err, store.ErrInvestmentNotFound):
			h.writeError(w, http.StatusNotFound, "Investment not found")
		case errors.Is(err, store.ErrCustomerNotFound):
			h.writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, store.ErrInvestmentAlreadyDecided):
			h.writeError(w, http.StatusConflict, "Investment already decided")
		default:
			h.logger.Error("failed to decide investment", "investment_id", investmentID, "decision", decision, "error", err)
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	message := "Investment rejected successfully"
	if decided.Status == domain.InvestmentStatusActive {
		message = "Investment activated successfully"
	}
	respondWithJSON(w, http.StatusOK, decisionResponse{
		Message:      message,
		InvestmentID: decided.ID.String(),
	})
}

// GetCustomerHandler handles GET /customers/{username}, returning the
// customer's ledger entry.
func (h *Handlers) GetCustomerHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		h.writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrCustomerNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to fetch customer", "username", username, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, customer)
}

// ListPlansHandler handles GET /plans, returning the plan catalog as a map of
// plan name to daily rate.
func (h *Handlers) ListPlansHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.PlanRates())
}

// RunAccrualHandler handles POST /internal/accrual/run, the internal-key gated
// manual trigger for the daily accrual job.
func (h *Handlers) RunAccrualHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.RunDailyAccrual(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("manual accrual run failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Accrual run failed")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func (h *Handlers) writeError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorResponse{Message: message})
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
