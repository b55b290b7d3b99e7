package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Optimization estimates
		r.Route("/optimize", func(r chi.Router) {
			r.Post("/rpm", h.EstimateRPM)
			r.Post("/budget", h.EstimateBudget)
			r.Post("/roi", h.EstimateROI)
		})

		// Content
		r.Route("/content", func(r chi.Router) {
			r.Post("/", h.CreateContent)

			r.Route("/{contentID}", func(r chi.Router) {
				r.Get("/", h.GetContent)
				r.Get("/recommendations", h.GetRecommendations)
				r.Post("/schedule-plan", h.GetSchedulePlan)
				r.Get("/schedules", h.GetContentSchedules)
				r.Post("/promotions", h.SchedulePromotion)
				r.Post("/history", h.RecordHistory)
				r.Post("/media", h.UploadMedia)
				r.Get("/media/{filename}", h.GetMediaURL)
			})
		})

		// Promotion schedules
		r.Route("/promotions", func(r chi.Router) {
			r.Get("/active", h.GetActivePromotions)
			r.Post("/process-completed", h.ProcessCompletedPromotions)
			r.Post("/bulk", h.BulkSchedulePromotions)

			r.Route("/{scheduleID}", func(r chi.Router) {
				r.Get("/", h.GetSchedule)
				r.Put("/", h.UpdateSchedule)
				r.Delete("/", h.DeleteSchedule)
				r.Get("/analytics", h.GetPromotionAnalytics)
			})
		})

		// A/B tests
		r.Route("/ab-tests", func(r chi.Router) {
			r.Post("/", h.CreateABTest)

			r.Route("/{testID}", func(r chi.Router) {
				r.Post("/variants/{variantID}/metrics", h.UpdateVariantMetrics)
				r.Post("/select-winner", h.SelectWinner)
				r.Get("/results", h.GetABTestResults)
			})
		})
	})

	return r
}
