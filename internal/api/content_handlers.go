package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/autopromote/internal/domain"
)

const maxUploadBytes = 512 << 20 // media uploads top out at 512 MB

// CreateContent registers a new content record.
func (h *Handlers) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID            string   `json:"user_id"`
		Title             string   `json:"title"`
		Type              string   `json:"type"`
		URL               string   `json:"url"`
		Description       string   `json:"description"`
		TargetPlatforms   []string `json:"target_platforms"`
		TargetRPM         float64  `json:"target_rpm"`
		MinViewsThreshold int64    `json:"min_views_threshold"`
		MaxBudget         float64  `json:"max_budget"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Type == "" {
		respondError(w, http.StatusBadRequest, "title and type are required")
		return
	}

	content := &domain.Content{
		UserID:            req.UserID,
		Title:             req.Title,
		Type:              domain.ContentType(req.Type),
		URL:               req.URL,
		Description:       req.Description,
		TargetPlatforms:   req.TargetPlatforms,
		Status:            domain.ContentPending,
		TargetRPM:         req.TargetRPM,
		MinViewsThreshold: req.MinViewsThreshold,
		MaxBudget:         req.MaxBudget,
	}
	id, err := h.content.Create(r.Context(), content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	content.ID = id
	respondJSON(w, http.StatusCreated, content)
}

// GetContent returns a single content record.
func (h *Handlers) GetContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.content.Get(r.Context(), chi.URLParam(r, "contentID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, content)
}

// UploadMedia stores the content's media payload and returns its URL.
func (h *Handlers) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		respondError(w, http.StatusServiceUnavailable, "media storage not configured")
		return
	}
	contentID := chi.URLParam(r, "contentID")
	if _, err := h.content.Get(r.Context(), contentID); err != nil {
		respondServiceError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := h.media.Put(r.Context(), contentID, header.Filename, contentType, file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"content_id": contentID,
		"filename":   header.Filename,
		"url":        url,
	})
}

// GetMediaURL returns a time-limited download URL for a stored media object.
func (h *Handlers) GetMediaURL(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		respondError(w, http.StatusServiceUnavailable, "media storage not configured")
		return
	}
	contentID := chi.URLParam(r, "contentID")
	filename := chi.URLParam(r, "filename")

	url, err := h.media.Presign(r.Context(), contentID, filename, 15*time.Minute)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// RecordHistory stores historical performance metrics for a content item.
func (h *Handlers) RecordHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "metrics history not configured")
		return
	}
	contentID := chi.URLParam(r, "contentID")
	if _, err := h.content.Get(r.Context(), contentID); err != nil {
		respondServiceError(w, err)
		return
	}

	var metrics domain.HistoricalMetrics
	if !decodeBody(w, r, &metrics) {
		return
	}
	if err := h.history.Record(r.Context(), contentID, &metrics); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// GetContentSchedules lists all promotion schedules for a content item.
func (h *Handlers) GetContentSchedules(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	schedules, err := h.promotions.ContentSchedules(r.Context(), contentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"content_id": contentID,
		"schedules":  schedules,
		"count":      len(schedules),
	})
}
