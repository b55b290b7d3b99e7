package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/autopromote/internal/domain"
	"github.com/ignite/autopromote/internal/optimization"
)

// EstimateRPM computes the optimal revenue-per-million for a content type on
// a platform. Historical metrics are optional; absent metrics fall back to
// neutral defaults.
func (h *Handlers) EstimateRPM(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentType string                    `json:"content_type"`
		Platform    string                    `json:"platform"`
		History     *domain.HistoricalMetrics `json:"historical_metrics"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ContentType == "" || req.Platform == "" {
		respondError(w, http.StatusBadRequest, "content_type and platform are required")
		return
	}

	rpm := h.model.OptimalRPM(req.ContentType, req.Platform, req.History)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"content_type": req.ContentType,
		"platform":     req.Platform,
		"optimal_rpm":  rpm,
	})
}

// EstimateBudget computes the optimal daily budget for a content item on a
// platform, using its recorded history when available.
func (h *Handlers) EstimateBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentID string `json:"content_id"`
		Platform  string `json:"platform"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Platform == "" {
		respondError(w, http.StatusBadRequest, "platform is required")
		return
	}

	content, err := h.content.Get(r.Context(), req.ContentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	budget := h.model.OptimalBudget(content, req.Platform, h.lookupHistory(r, req.ContentID))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"content_id":     req.ContentID,
		"platform":       req.Platform,
		"optimal_budget": budget,
	})
}

// EstimateROI projects views, revenue, and return for a given budget and
// risk tolerance.
func (h *Handlers) EstimateROI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentID     string  `json:"content_id"`
		Platform      string  `json:"platform"`
		Budget        float64 `json:"budget"`
		RiskTolerance string  `json:"risk_tolerance"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Platform == "" {
		respondError(w, http.StatusBadRequest, "platform is required")
		return
	}

	content, err := h.content.Get(r.Context(), req.ContentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	est, err := h.model.ExpectedROI(content, req.Platform, req.Budget,
		optimization.RiskProfile(req.RiskTolerance), h.lookupHistory(r, req.ContentID))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, est)
}

// GetRecommendations returns optimization recommendations for a content item.
func (h *Handlers) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	content, err := h.content.Get(r.Context(), contentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	recs := h.model.Recommendations(content, h.lookupHistory(r, contentID))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"content_id":      contentID,
		"recommendations": recs,
	})
}

// GetSchedulePlan returns a per-platform promotion plan sorted by priority.
// An empty platform list falls back to the content's target platforms.
func (h *Handlers) GetSchedulePlan(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	var req struct {
		Platforms []string `json:"platforms"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	content, err := h.content.Get(r.Context(), contentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	platforms := req.Platforms
	if len(platforms) == 0 {
		platforms = content.TargetPlatforms
	}
	plan := h.model.SchedulePlan(content, platforms, h.lookupHistory(r, contentID))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"content_id": contentID,
		"plan":       plan,
	})
}

func (h *Handlers) lookupHistory(r *http.Request, contentID string) *domain.HistoricalMetrics {
	if h.history == nil {
		return nil
	}
	return h.history.History(r.Context(), contentID)
}
