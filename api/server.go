/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a local frontend

ROUTE GROUPS:
  /api/weeks/*        Weekly ledger: calculate, preview, finalize
  /api/bonus-tasks/*  Bonus tasks and their results
  /api/fund/*         The bonus fund
  /api/grades/*       Grade recording and escalation
  /api/bonuses/*      Bonus minutes
  /api/reviews/*      Topic reviews and priority picking
  /api/homeworks/*    Homework lifecycle and reminders
  /api/sync/*         External feed ingestion
  /api/config/*       Persisted settings
  /api/readiness      Installation readiness check
  Catalog CRUD:       /api/schools, /api/subjects, /api/topics,
                      /api/members, /api/providers

SEE ALSO:
  - handlers.go: Handler core and response helpers
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Weekly ledger
		r.Route("/weeks", func(r chi.Router) {
			r.Post("/calculate", h.CalculateWeek)
			r.Get("/preview", h.PreviewWeek)
			r.Post("/", h.CreateWeek)
			r.Get("/", h.ListWeeks)
			r.Get("/{key}", h.GetWeek)
			r.Patch("/{key}", h.UpdateWeek)
			r.Post("/{key}/finalize", h.FinalizeWeek)
		})

		// Bonus tasks
		r.Route("/bonus-tasks", func(r chi.Router) {
			r.Post("/", h.CreateTask)
			r.Get("/", h.ListTasks)
			r.Get("/latest", h.LatestTask)
			r.Get("/check-pending", h.CheckPendingTask)
			r.Get("/{id}", h.GetTask)
			r.Post("/{id}/complete", h.CompleteTask)
			r.Post("/{id}/cancel", h.CancelTask)
			r.Post("/{id}/result", h.ApplyTaskResult)
		})

		// Bonus fund
		r.Route("/fund", func(r chi.Router) {
			r.Get("/", h.GetFund)
			r.Post("/topup", h.TopUpFund)
		})

		// Grades
		r.Route("/grades", func(r chi.Router) {
			r.Post("/", h.CreateGrade)
			r.Get("/", h.ListGrades)
			r.Get("/pending-escalation", h.PendingEscalation)
			r.Post("/mark-escalated", h.MarkEscalated)
		})

		// Bonuses
		r.Route("/bonuses", func(r chi.Router) {
			r.Post("/", h.CreateBonus)
			r.Get("/unrewarded", h.ListUnrewardedBonuses)
			r.Post("/mark-rewarded", h.MarkBonusesRewarded)
			r.Delete("/{id}", h.DeleteBonus)
		})

		// Topic reviews
		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", h.CreateReview)
			r.Get("/", h.ListReviews)
			r.Get("/priority", h.TopPriorityReviews)
			r.Get("/priority/pick", h.PickPriorityReview)
			r.Post("/{id}/increment", h.IncrementReview)
			r.Post("/{id}/reinforce", h.ReinforceReview)
		})

		// Homeworks
		r.Route("/homeworks", func(r chi.Router) {
			r.Post("/", h.CreateHomework)
			r.Get("/", h.ListHomeworks)
			r.Post("/close-overdue", h.CloseOverdueHomeworks)
			r.Get("/reminders", h.DueReminders)
			r.Post("/reminders/mark", h.MarkReminded)
			r.Get("/{id}", h.GetHomework)
			r.Patch("/{id}", h.UpdateHomework)
			r.Post("/{id}/complete", h.CompleteHomework)
		})

		// External feeds
		r.Route("/sync", func(r chi.Router) {
			r.Post("/{provider}/grades", h.SyncGrades)
			r.Post("/{provider}/homeworks", h.SyncHomeworks)
			r.Post("/{provider}/active", h.SetProviderActive)
		})

		// Persisted settings
		r.Route("/config", func(r chi.Router) {
			r.Get("/", h.ListConfig)
			r.Get("/grade-minutes", h.GradeMinutes)
			r.Get("/{key}", h.GetConfig)
			r.Put("/{key}", h.SetConfig)
		})

		r.Get("/readiness", h.GetReadiness)

		// Catalog
		r.Route("/schools", func(r chi.Router) {
			r.Post("/", h.CreateSchool)
			r.Get("/", h.ListSchools)
		})
		r.Route("/subjects", func(r chi.Router) {
			r.Post("/", h.CreateSubject)
			r.Get("/", h.ListSubjects)
		})
		r.Route("/topics", func(r chi.Router) {
			r.Post("/", h.CreateTopic)
			r.Get("/", h.ListTopics)
		})
		r.Route("/members", func(r chi.Router) {
			r.Post("/", h.CreateMember)
			r.Get("/", h.ListMembers)
		})
		r.Route("/providers", func(r chi.Router) {
			r.Post("/", h.CreateProvider)
			r.Get("/", h.ListProviders)
		})
	})

	return r
}
