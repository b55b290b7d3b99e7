package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/autopromote/internal/service/abtest"
)

// CreateABTest starts an A/B test over promotion-setting variants.
func (h *Handlers) CreateABTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentID string                `json:"content_id"`
		Variants  []abtest.VariantInput `json:"variants"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ContentID == "" {
		respondError(w, http.StatusBadRequest, "content_id is required")
		return
	}

	test, err := h.tests.CreateTest(r.Context(), req.ContentID, req.Variants)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, test)
}

// UpdateVariantMetrics merges reported metrics into a variant. The winner is
// determined automatically once the test has enough data.
func (h *Handlers) UpdateVariantMetrics(w http.ResponseWriter, r *http.Request) {
	var update abtest.MetricsUpdate
	if !decodeBody(w, r, &update) {
		return
	}

	test, err := h.tests.UpdateTestMetrics(r.Context(),
		chi.URLParam(r, "testID"), chi.URLParam(r, "variantID"), update)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, test)
}

// SelectWinner forces winner determination for a test.
func (h *Handlers) SelectWinner(w http.ResponseWriter, r *http.Request) {
	winner, err := h.tests.DetermineWinner(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, winner)
}

// GetABTestResults returns the test together with its computed insights.
func (h *Handlers) GetABTestResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.tests.GetTestResults(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}
