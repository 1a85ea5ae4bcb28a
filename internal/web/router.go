package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lojf/ministry/internal/handlers"
)

func Router(h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handlers.Health)
	r.Post("/orgs", h.CreateOrganization)

	// Everything under /api acts for one organization.
	r.Route("/api", func(ar chi.Router) {
		ar.Use(handlers.RequireOrganization)

		// Scans and payments
		ar.Post("/checkin", h.CheckIn)
		ar.Post("/payments", h.CollectPayment)
		ar.Get("/enrollments/{id}/payments", h.EnrollmentPayments)

		// Catalog
		ar.Post("/programs", h.CreateProgram)
		ar.Post("/programs/{id}/archive", h.ArchiveProgram)
		ar.Post("/sessions", h.ScheduleSession)
		ar.Post("/participants", h.RegisterParticipant)
		ar.Get("/participants", h.FindParticipant)
		ar.Post("/enrollments", h.Enroll)

		// Sessions
		ar.Get("/sessions/{id}/attendance", h.Roster)
		ar.Get("/sessions/{id}/attendance.csv", h.RosterCSV)
		ar.Put("/sessions/{id}/attendance/{userID}", h.SetAttendanceStatus)
		ar.Post("/sessions/{id}/token", h.RotateSessionToken)

		// QR images
		ar.Get("/sessions/{id}/qr.png", h.SessionQR)
		ar.Get("/participants/{id}/qr.png", h.ParticipantQR)
	})

	return r
}
