package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicdesk/registration-service/internal/user"
)

type RouterConfig struct {
	Service   BookingService
	Users     user.Store
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Logger    *zap.Logger
	Env       string
	Version   string
	RateLimit int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/appointments", listAppointmentsHandler(cfg.Service))
		r.Post("/appointments", createAppointmentsHandler(cfg.Service))
		r.Put("/appointments/{id}", updateAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Get("/appointments/between/{fromDate}/{toDate}", listAppointmentsBetweenHandler(cfg.Service))
		r.Get("/appointments/bydoctorid/{doctorId}/between/{fromDate}/{toDate}", listAppointmentsByDoctorBetweenHandler(cfg.Service))
		r.Get("/appointments/byclinicid/{clinicId}/between/{fromDate}/{toDate}", listAppointmentsByClinicBetweenHandler(cfg.Service))

		r.Get("/appointment/{id}", getAppointmentHandler(cfg.Service))
		r.Delete("/appointment/{id}", deleteAppointmentHandler(cfg.Service))
		r.Get("/appointment/byuser/{id}", listAppointmentsByUserHandler(cfg.Service))
		r.Get("/appointment/bydoctor/{id}", listAppointmentsByDoctorHandler(cfg.Service))
		r.Get("/appointment/byclinic/{id}", listAppointmentsByClinicHandler(cfg.Service))

		r.Get("/slots/bydoctor/{doctorId}/date/{date}", listSlotsHandler(cfg.Service))

		r.Get("/users", listUsersHandler(cfg.Users))
		r.Post("/user", createUserHandler(cfg.Users))
		r.Get("/user/by/id/{id}", getUserHandler(cfg.Users))
		r.Get("/user/by/phonenumber/{phoneNumber}", getUserByPhoneHandler(cfg.Users))
		r.Put("/user/{id}", updateUserHandler(cfg.Users))
		r.Delete("/user/{id}", deleteUserHandler(cfg.Users))
	})

	return r
}
