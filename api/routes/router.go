package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tandemflight-backend/api/controllers"
	bookingcontrollers "github.com/angelmondragon/tandemflight-backend/api/controllers/bookings"
	"github.com/angelmondragon/tandemflight-backend/api/middleware"
	"github.com/angelmondragon/tandemflight-backend/internal/bookings"
	"github.com/angelmondragon/tandemflight-backend/internal/notes"
	"github.com/angelmondragon/tandemflight-backend/internal/notifications"
	"github.com/angelmondragon/tandemflight-backend/internal/reassignment"
	"github.com/angelmondragon/tandemflight-backend/internal/refunds"
	"github.com/angelmondragon/tandemflight-backend/internal/reschedule"
	"github.com/angelmondragon/tandemflight-backend/internal/summary"
	"github.com/angelmondragon/tandemflight-backend/pkg/config"
	"github.com/angelmondragon/tandemflight-backend/pkg/db"
	"github.com/angelmondragon/tandemflight-backend/pkg/enums"
	"github.com/angelmondragon/tandemflight-backend/pkg/logger"
	"github.com/angelmondragon/tandemflight-backend/pkg/metrics"
	"github.com/angelmondragon/tandemflight-backend/pkg/redis"
)

// Services are the domain services served over HTTP.
type Services struct {
	Bookings      bookings.Service
	Summary       summary.Service
	Reassignment  reassignment.Service
	Reschedule    reschedule.Service
	Refunds       refunds.Service
	Notes         notes.Service
	History       bookingcontrollers.HistoryLister
	Notifications notifications.Service
	Feed          bookingcontrollers.ChangeSubscriber
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	svc Services,
) http.Handler {
	var httpMetrics *metrics.HTTPMetrics
	if registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(registry)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	mutationPolicy := middleware.NewRateLimitPolicy(
		"mutation",
		cfg.RateLimit.MutationWindow,
		cfg.RateLimit.MutationActorLimit,
		cfg.RateLimit.MutationIPLimit,
	)

	checks := []controllers.ReadinessCheck{{Name: "database", Pinger: dbP}}
	if redisClient != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/admin/v1/bookings", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))
		if redisClient != nil {
			r.Use(middleware.RateLimit(mutationPolicy, redisClient, logg))
			r.Use(middleware.Idempotency(redisClient, cfg.Eventing.HTTPIdempotencyTTL, logg))
		}

		r.Post("/", bookingcontrollers.Create(svc.Bookings, logg))
		r.Get("/", bookingcontrollers.List(svc.Bookings, logg))
		r.Get("/summary", bookingcontrollers.Summary(svc.Summary, logg))
		r.Get("/stream", bookingcontrollers.Stream(svc.Feed, cfg.Feed.Heartbeat, logg))

		r.Route("/{bookingId}", func(r chi.Router) {
			r.Get("/", bookingcontrollers.Detail(svc.Bookings, logg))
			r.Post("/status", bookingcontrollers.ChangeStatus(svc.Bookings, logg))
			r.Post("/reassign", bookingcontrollers.Reassign(svc.Reassignment, logg))
			r.Post("/reschedule", bookingcontrollers.Reschedule(svc.Reschedule, logg))
			r.Post("/refunds", bookingcontrollers.Refund(svc.Refunds, logg))
			r.Patch("/priority", bookingcontrollers.UpdatePriority(svc.Bookings, logg))
			r.Put("/tags", bookingcontrollers.UpdateTags(svc.Bookings, logg))
			r.Patch("/payment-status", bookingcontrollers.UpdatePaymentStatus(svc.Bookings, logg))
			r.Put("/internal-note", bookingcontrollers.UpdateInternalNote(svc.Bookings, logg))
			r.Post("/seen", bookingcontrollers.MarkSeen(svc.Bookings, logg))
			r.Get("/history", bookingcontrollers.History(svc.History, logg))
			r.Get("/notifications", controllers.ListBookingNotifications(svc.Notifications, logg))

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", bookingcontrollers.ListNotes(svc.Notes, logg))
				r.Post("/", bookingcontrollers.AddNote(svc.Notes, logg))
				r.Get("/highlights", bookingcontrollers.NoteHighlights(svc.Notes, logg))
				r.Patch("/{noteId}/pin", bookingcontrollers.PinNote(svc.Notes, logg))
				r.Delete("/{noteId}", bookingcontrollers.DeleteNote(svc.Notes, logg))
			})
		})
	})

	r.Route("/api/v1/bookings/{bookingId}", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRolePilot, enums.ActorRoleCompany))
		if redisClient != nil {
			r.Use(middleware.RateLimit(mutationPolicy, redisClient, logg))
		}

		r.Get("/", bookingcontrollers.AssigneeDetail(svc.Bookings, logg))
		r.Post("/seen", bookingcontrollers.MarkSeen(svc.Bookings, logg))
	})

	return r
}
