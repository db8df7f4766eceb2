package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/worklog-ledger/internal/config"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/user"
	"github.com/cmlabs-hris/worklog-ledger/internal/handler/http/middleware"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(cfg *config.Config, JWTService jwt.Service, attendanceHandler AttendanceHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "worklog-ledger"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	// punches record the source IP
	r.Use(chiMiddleware.RealIP)

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				// Own ledger
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireStaffMember)
					r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).Post("/clock-in", attendanceHandler.ClockIn)
					r.With(middleware.RequirePermission(user.PermissionAttendanceCreate)).Post("/clock-out", attendanceHandler.ClockOut)
					r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/my", attendanceHandler.GetMyAttendance)
				})

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/status", attendanceHandler.Status)
				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/summary", attendanceHandler.Summary)

				// Manager or owner
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)

					r.Route("/staff/{staffMemberID}", func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionAttendanceCreate))
						r.Post("/clock-in", attendanceHandler.ClockInFor)
						r.Post("/clock-out", attendanceHandler.ClockOutFor)
					})

					r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).Get("/", attendanceHandler.List)
					r.With(middleware.RequirePermission(user.PermissionReportsView)).Get("/summary/export", attendanceHandler.ExportSummary)
					r.With(middleware.RequirePermission(user.PermissionAttendanceSweep)).Post("/sweep", attendanceHandler.Sweep)

					r.With(middleware.RequirePermission(user.PermissionAttendanceCorrect)).Put("/{id}/correction", attendanceHandler.Correct)
					r.With(middleware.RequirePermission(user.PermissionAttendanceDelete)).Delete("/{id}", attendanceHandler.Delete)
				})

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/{id}", attendanceHandler.Get)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"route not found"}}`))
	})

	return r
}
