package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	classesHandler := handlers.NewClassesHandler(s.stores.Classes)
	studentsHandler := handlers.NewStudentsHandler(s.stores.Classes, s.stores.Students)
	enrollHandler := handlers.NewEnrollHandler(s.engine)
	attendanceHandler := handlers.NewAttendanceHandler(s.engine, s.stores.Classes, s.stores.Ledger)

	// Health check (no auth required).
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireToken(s.config.Web.APIToken))

		// Classes
		r.Get("/classes", classesHandler.List)
		r.Post("/classes", classesHandler.Create)
		r.Get("/classes/{id}", classesHandler.Get)

		// Roster
		r.Get("/classes/{id}/students", studentsHandler.List)
		r.Post("/classes/{id}/students", studentsHandler.Create)

		// Enrollment
		r.Post("/students/{id}/enroll", enrollHandler.Enroll)

		// Attendance
		r.Post("/attendance/mark", attendanceHandler.Mark)
		r.Get("/attendance/{classID}/{date}", attendanceHandler.Report)
	})
}
