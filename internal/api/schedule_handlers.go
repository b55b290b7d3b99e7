package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/autopromote/internal/service/promotion"
)

// SchedulePromotion creates a promotion schedule for a content item.
func (h *Handlers) SchedulePromotion(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	var in promotion.ScheduleInput
	if !decodeBody(w, r, &in) {
		return
	}

	sched, err := h.promotions.SchedulePromotion(r.Context(), contentID, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sched)
}

// GetSchedule returns a single promotion schedule.
func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.promotions.GetSchedule(r.Context(), chi.URLParam(r, "scheduleID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sched)
}

// UpdateSchedule applies a partial update to a promotion schedule.
func (h *Handlers) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var u promotion.UpdateFields
	if !decodeBody(w, r, &u) {
		return
	}

	sched, err := h.promotions.UpdatePromotionSchedule(r.Context(), chi.URLParam(r, "scheduleID"), u)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sched)
}

// DeleteSchedule removes a schedule and its recurrence children.
func (h *Handlers) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.promotions.DeletePromotionSchedule(r.Context(), chi.URLParam(r, "scheduleID")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetActivePromotions lists running promotions, filterable by platform,
// budget range, and content type.
func (h *Handlers) GetActivePromotions(w http.ResponseWriter, r *http.Request) {
	f := promotion.ActiveFilter{
		Platform:    r.URL.Query().Get("platform"),
		ContentType: r.URL.Query().Get("content_type"),
	}
	if v := r.URL.Query().Get("min_budget"); v != "" {
		b, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid min_budget")
			return
		}
		f.MinBudget = &b
	}
	if v := r.URL.Query().Get("max_budget"); v != "" {
		b, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid max_budget")
			return
		}
		f.MaxBudget = &b
	}

	promotions, err := h.promotions.GetActivePromotions(r.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"promotions": promotions,
		"count":      len(promotions),
	})
}

// ProcessCompletedPromotions sweeps due schedules now instead of waiting for
// the background worker.
func (h *Handlers) ProcessCompletedPromotions(w http.ResponseWriter, r *http.Request) {
	n, err := h.promotions.ProcessCompletedPromotions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"processed": n})
}

// GetPromotionAnalytics returns the performance snapshot for one schedule.
func (h *Handlers) GetPromotionAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.promotions.GetPromotionAnalytics(r.Context(), chi.URLParam(r, "scheduleID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// BulkSchedulePromotions applies one schedule template across many content
// ids, reporting per-item results.
func (h *Handlers) BulkSchedulePromotions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContentIDs []string                `json:"content_ids"`
		Schedule   promotion.ScheduleInput `json:"schedule"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.ContentIDs) == 0 {
		respondError(w, http.StatusBadRequest, "content_ids is required")
		return
	}

	results := h.promotions.BulkSchedulePromotions(r.Context(), req.ContentIDs, req.Schedule)
	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results":   results,
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}
