package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes wires the full route tree onto a fresh chi mux.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/imports", h.CreateImport)
		r.Get("/imports/{id}", h.GetImport)

		r.Post("/webhooks/events", h.HandleProviderEvent)
		r.Post("/webhooks/replies", h.HandleInboundReply)

		r.Post("/campaigns", h.CreateCampaign)
		r.Get("/campaigns/{id}", h.GetCampaign)
		r.Post("/campaigns/{id}/pause", h.PauseCampaign)
		r.Post("/campaigns/{id}/resume", h.ResumeCampaign)

		r.Post("/sequences", h.StartSequence)
		r.Post("/sequences/{id}/pause", h.PauseSequence)
		r.Post("/sequences/{id}/resume", h.ResumeSequence)
		r.Post("/sequences/{id}/advance", h.AdvanceSequence)

		r.Post("/messages", h.CreateMessage)
		r.Get("/messages/{id}", h.GetMessage)
		r.Post("/messages/{id}/transition", h.TransitionMessage)
		r.Post("/messages/{id}/schedule", h.ScheduleMessage)

		r.Get("/conversations/{id}/messages", h.ConversationMessages)
		r.Get("/sla/{entityType}/{entityID}", h.EntityDeadlines)

		r.Get("/suppressions", h.ListSuppressions)
		r.Post("/suppressions", h.CreateSuppression)
		r.Get("/suppressions/stats", h.SuppressionStats)
		r.Get("/suppressions/{email}", h.GetSuppression)

		r.Get("/queue/status", h.QueueStatus)
		r.Post("/queue/process", h.ProcessQueue)

		r.Post("/sla/sweep", h.SweepDeadlines)
	})

	return r
}
