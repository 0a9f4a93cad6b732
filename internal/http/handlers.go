package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/youserz/finance-tracker/internal/core"
)

const (
	cacheKeyCategoryTotals = "category-totals"
	cacheKeyMonthlyFlows   = "monthly-flows"
	cacheKeyCategoryChart  = "category-chart"
	cacheKeyMonthlyChart   = "monthly-chart"
)

type submitRequest struct {
	Text string `json:"text"`
}

type balanceRequest struct {
	Balance float64 `json:"balance"`
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode response failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// handleSubmit accepts a free-form phrase and stores the classified
// transaction.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	t, err := s.ledger.SubmitText(r.Context(), req.Text)
	switch {
	case errors.Is(err, core.ErrEmptyInput), errors.Is(err, core.ErrAmountNotRecognized):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Submit failed", "error", err, "text", req.Text)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}

	s.invalidateSummaries()
	respondJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := s.recentLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	out, err := s.ledger.RecentTransactions(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}
	if out == nil {
		out = []core.Transaction{}
	}

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Delete failed", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}

	// Unknown ids fall through here too; delete is idempotent.
	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.Balance(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Get balance failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}

	respondJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

// handleSetBalance applies a manual balance override.
func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	var req balanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.ledger.SetBalance(r.Context(), req.Balance); err != nil {
		slog.ErrorContext(r.Context(), "Set balance failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}

	respondJSON(w, http.StatusOK, balanceResponse{Balance: req.Balance})
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.Recalculate(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Recalculate failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}

	respondJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	totals, err := s.categoryTotals(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category summary failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}
	if totals == nil {
		totals = []core.CategoryTotal{}
	}

	respondJSON(w, http.StatusOK, totals)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	flows, err := s.monthlyFlows(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly summary failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}
	if flows == nil {
		flows = []core.MonthlyFlow{}
	}

	respondJSON(w, http.StatusOK, flows)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	if png, found := s.chartCache.Get(cacheKeyCategoryChart); found {
		writePNG(w, png)
		return
	}

	totals, err := s.categoryTotals(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category chart failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}

	png, err := s.charts.CategoryPie(totals)
	if err != nil {
		slog.ErrorContext(r.Context(), "Render category chart failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}

	if png != nil {
		s.chartCache.Set(cacheKeyCategoryChart, png)
	}
	writePNG(w, png)
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	if png, found := s.chartCache.Get(cacheKeyMonthlyChart); found {
		writePNG(w, png)
		return
	}

	flows, err := s.monthlyFlows(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly chart failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}

	png, err := s.charts.MonthlyFlows(flows)
	if err != nil {
		slog.ErrorContext(r.Context(), "Render monthly chart failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}

	if png != nil {
		s.chartCache.Set(cacheKeyMonthlyChart, png)
	}
	writePNG(w, png)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		respondError(w, http.StatusInternalServerError, "operation failed")
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}

	respondJSON(w, http.StatusOK, cats)
}

func (s *Server) categoryTotals(r *http.Request) ([]core.CategoryTotal, error) {
	if totals, found := s.categoryCache.Get(cacheKeyCategoryTotals); found {
		return totals, nil
	}

	totals, err := s.ledger.ExpensesByCategory(r.Context())
	if err != nil {
		return nil, err
	}

	s.categoryCache.Set(cacheKeyCategoryTotals, totals)
	return totals, nil
}

func (s *Server) monthlyFlows(r *http.Request) ([]core.MonthlyFlow, error) {
	if flows, found := s.monthlyCache.Get(cacheKeyMonthlyFlows); found {
		return flows, nil
	}

	flows, err := s.ledger.MonthlyFlows(r.Context())
	if err != nil {
		return nil, err
	}

	s.monthlyCache.Set(cacheKeyMonthlyFlows, flows)
	return flows, nil
}

// writePNG writes chart bytes, or 204 when there was nothing to draw.
func writePNG(w http.ResponseWriter, png []byte) {
	if png == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
