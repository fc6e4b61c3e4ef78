package http

import (
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Logger             *slog.Logger
	LogLevel           slog.Level
	CORSAllowedOrigins []string
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	masterHandler MasterHandler,
	structureHandler StructureHandler,
	assignmentHandler AssignmentHandler,
	payrollHandler PayrollHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired)
		r.Use(middleware.RequireCompany)

		r.Route("/grades", func(r chi.Router) {
			r.Get("/", masterHandler.ListGrades)
			r.Get("/{id}", masterHandler.GetGrade)
			r.With(middleware.RequireManager).Post("/", masterHandler.CreateGrade)
		})

		r.Route("/structures", func(r chi.Router) {
			r.Get("/", structureHandler.List)
			r.Get("/active", structureHandler.GetActive)
			r.Get("/history", structureHandler.History)
			r.Get("/{id}", structureHandler.GetByID)

			// Manager/Owner only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager)
				r.Post("/", structureHandler.Create)
				r.Post("/{id}/supersede", structureHandler.Supersede)
			})
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Use(middleware.RequireManager)
			r.Post("/", assignmentHandler.Assign)
			r.Post("/bulk", assignmentHandler.BulkReassign)
		})

		r.Route("/employees/{employeeId}/assignments", func(r chi.Router) {
			r.Get("/", assignmentHandler.History)
			r.Get("/current", assignmentHandler.Current)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Route("/components", func(r chi.Router) {
				r.Get("/", structureHandler.ListPayComponents)
				r.With(middleware.RequireManager).Post("/", structureHandler.CreatePayComponent)
			})

			r.Post("/preview", payrollHandler.Preview)
			r.Get("/records/{recordId}", payrollHandler.GetRecord)

			r.Route("/runs", func(r chi.Router) {
				r.Get("/", payrollHandler.ListRuns)
				r.Get("/{id}", payrollHandler.GetRun)
				r.Get("/{id}/records", payrollHandler.ListRecords)
				r.Get("/{id}/adjustments", payrollHandler.ListAdjustments)

				// Manager/Owner only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/", payrollHandler.CreateRun)
					r.Delete("/{id}", payrollHandler.DeleteRun)
					r.Post("/{id}/approve", payrollHandler.Approve)
					r.Post("/{id}/reject", payrollHandler.Reject)
					r.Post("/{id}/recalculate", payrollHandler.Recalculate)
				})
			})
		})
	})
	return r
}
