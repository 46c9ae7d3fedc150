package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkoestner/folioflex/internal/api/response"
	"github.com/jkoestner/folioflex/internal/service"
)

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Portfolios lists the configured portfolio names
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	names, err := h.portfolioService.Portfolios()
	if err != nil {
		respondServiceError(w, "failed to list portfolios", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, map[string][]string{"portfolios": names})
}

// Performance reports a portfolio's performance as of ?date with an optional
// ?lookback window
func (h *PortfolioHandler) Performance(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	date, err := parseDateParam(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}
	lookback := r.URL.Query().Get("lookback")

	records, err := h.portfolioService.Performance(name, date, lookback)
	if err != nil {
		respondServiceError(w, "failed to get performance", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, records)
}

// Transactions returns a portfolio's normalized ledger
func (h *PortfolioHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	txs, err := h.portfolioService.Transactions(name)
	if err != nil {
		respondServiceError(w, "failed to get transactions", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, txs)
}

// History returns a portfolio's full derived transaction history
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rows, err := h.portfolioService.TransactionsHistory(name)
	if err != nil {
		respondServiceError(w, "failed to get transaction history", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, rows)
}

// View pivots one metric of a portfolio's history per date and ticker
func (h *PortfolioHandler) View(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "market_value"
	}
	lookback := r.URL.Query().Get("lookback")

	view, err := h.portfolioService.View(name, metric, lookback)
	if err != nil {
		respondServiceError(w, "failed to get view", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, view)
}

// Returns reports the per-ticker return percentages, including the Modified
// Dietz figures
func (h *PortfolioHandler) Returns(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	date, err := parseDateParam(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}
	lookback := r.URL.Query().Get("lookback")

	pcts, err := h.portfolioService.ReturnPcts(name, date, lookback)
	if err != nil {
		respondServiceError(w, "failed to get returns", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, pcts)
}

// Checks reports how many ledger checks warned during the portfolio build
func (h *PortfolioHandler) Checks(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	failed, err := h.portfolioService.ChecksFailed(name)
	if err != nil {
		respondServiceError(w, "failed to get checks", err)
		return
	}
	response.RespondJSON(w, http.StatusOK, map[string]int{"checksFailed": failed})
}
