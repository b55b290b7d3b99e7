package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ignite/autopromote/internal/domain"
	"github.com/ignite/autopromote/internal/optimization"
	"github.com/ignite/autopromote/internal/service/abtest"
	"github.com/ignite/autopromote/internal/service/promotion"
	"github.com/ignite/autopromote/internal/storage"
)

// ContentStore is the slice of the content repository the API needs.
// *postgres.ContentRepo satisfies it.
type ContentStore interface {
	Get(ctx context.Context, id string) (*domain.Content, error)
	Create(ctx context.Context, c *domain.Content) (string, error)
}

// HistoryStore reads and writes per-content historical metrics.
// *analytics.HistoryStore satisfies it.
type HistoryStore interface {
	History(ctx context.Context, contentID string) *domain.HistoricalMetrics
	Record(ctx context.Context, contentID string, m *domain.HistoricalMetrics) error
}

// Handlers holds the HTTP handlers for all API routes
type Handlers struct {
	promotions *promotion.Service
	tests      *abtest.Service
	model      *optimization.Model
	content    ContentStore
	history    HistoryStore       // optional, may be nil
	media      storage.MediaStore // optional, may be nil
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	promotions *promotion.Service,
	tests *abtest.Service,
	model *optimization.Model,
	content ContentStore,
	history HistoryStore,
	media storage.MediaStore,
) *Handlers {
	return &Handlers{
		promotions: promotions,
		tests:      tests,
		model:      model,
		content:    content,
		history:    history,
		media:      media,
	}
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "autopromote",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service sentinel errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, promotion.ErrContentNotFound),
		errors.Is(err, promotion.ErrScheduleNotFound),
		errors.Is(err, abtest.ErrTestNotFound),
		errors.Is(err, abtest.ErrVariantNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, promotion.ErrInvalidSchedule),
		errors.Is(err, abtest.ErrInvalidTest),
		errors.Is(err, optimization.ErrInvalidBudget):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, abtest.ErrTestCompleted):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
