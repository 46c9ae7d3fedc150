package handlers

import (
	"net/http"
	"strings"

	"github.com/jkoestner/folioflex/internal/api/response"
	"github.com/jkoestner/folioflex/internal/service"
)

// ManagerHandler handles cross-portfolio HTTP requests
type ManagerHandler struct {
	portfolioService *service.PortfolioService
}

// NewManagerHandler creates a new ManagerHandler
func NewManagerHandler(portfolioService *service.PortfolioService) *ManagerHandler {
	return &ManagerHandler{
		portfolioService: portfolioService,
	}
}

// Summary reports every portfolio's aggregate state, with one windowed return
// per comma-separated ?lookbacks entry
func (h *ManagerHandler) Summary(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}
	var lookbacks []string
	if raw := r.URL.Query().Get("lookbacks"); raw != "" {
		lookbacks = strings.Split(raw, ",")
	}

	rows, err := h.portfolioService.Summary(date, lookbacks)
	if err != nil {
		respondServiceError(w, "failed to get summary", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, rows)
}

// View pivots one metric's portfolio aggregate across all portfolios
func (h *ManagerHandler) View(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "market_value"
	}
	rows, err := h.portfolioService.ManagerView(metric)
	if err != nil {
		respondServiceError(w, "failed to get view", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, rows)
}

// Refresh rebuilds every portfolio from its sources
func (h *ManagerHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.portfolioService.Refresh(r.Context()); err != nil {
		respondServiceError(w, "failed to refresh portfolios", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
