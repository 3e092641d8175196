package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/learnhub-backend/api/controllers"
	"github.com/learnhub/learnhub-backend/api/middleware"
	"github.com/learnhub/learnhub-backend/internal/cart"
	checkoutsvc "github.com/learnhub/learnhub-backend/internal/checkout"
	"github.com/learnhub/learnhub-backend/internal/enrollments"
	"github.com/learnhub/learnhub-backend/pkg/config"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	"github.com/learnhub/learnhub-backend/pkg/logger"
	"github.com/learnhub/learnhub-backend/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	idempotencyStore middleware.ResponseStore,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	cartService cart.Service,
	enrollmentService enrollments.Service,
	checkoutService checkoutsvc.Service,
	dlq controllers.DLQLister,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisP,
		}))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// Browser checkout contract: wildcard CORS, flat error bodies.
	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(middleware.FunctionCORS())
		r.Options("/checkout", controllers.FunctionCheckout(checkoutService, logg))
		r.With(
			middleware.FunctionAuth(cfg.JWT, logg),
			middleware.Idempotency(idempotencyStore, logg),
		).Post("/checkout", controllers.FunctionCheckout(checkoutService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartSummary(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Delete("/items/{courseId}", controllers.CartRemoveItem(cartService, logg))
			})
			r.Route("/enrollments", func(r chi.Router) {
				r.Get("/", controllers.EnrollmentList(enrollmentService, logg))
				r.Get("/course-ids", controllers.EnrollmentCourseIDs(enrollmentService, logg))
			})
			r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Post("/enrollments", controllers.AdminGrantEnrollment(enrollmentService, logg))
			r.Post("/enrollments/{enrollmentId}/cancel", controllers.AdminCancelEnrollment(enrollmentService, logg))
			r.Get("/outbox/dlq", controllers.AdminListDLQ(dlq, logg))
		})
	})

	return r
}
