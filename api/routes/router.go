package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nestfinderhq/nestfinder-backend/api/controllers"
	webhookcontrollers "github.com/nestfinderhq/nestfinder-backend/api/controllers/webhooks"
	"github.com/nestfinderhq/nestfinder-backend/api/middleware"
	"github.com/nestfinderhq/nestfinder-backend/internal/auth"
	"github.com/nestfinderhq/nestfinder-backend/internal/media"
	"github.com/nestfinderhq/nestfinder-backend/internal/properties"
	"github.com/nestfinderhq/nestfinder-backend/internal/reservations"
	stripewebhook "github.com/nestfinderhq/nestfinder-backend/internal/webhooks/stripe"
	"github.com/nestfinderhq/nestfinder-backend/pkg/auth/session"
	"github.com/nestfinderhq/nestfinder-backend/pkg/config"
	"github.com/nestfinderhq/nestfinder-backend/pkg/db"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	"github.com/nestfinderhq/nestfinder-backend/pkg/logger"
	"github.com/nestfinderhq/nestfinder-backend/pkg/redis"
	"github.com/nestfinderhq/nestfinder-backend/pkg/storage/gcs"
	"github.com/nestfinderhq/nestfinder-backend/pkg/stripe"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	GCS          gcs.Pinger
	Sessions     session.AccessSessionChecker
	Auth         auth.Service
	Register     auth.RegisterService
	Properties   properties.Service
	Media        media.Service
	Reservations reservations.Service
	Stripe       *stripe.Client
	Webhook      *stripewebhook.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis, p.GCS))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.Webhook, p.Stripe, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.Register, p.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(p.Auth, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
	})

	// Public catalog. The detail route accepts an optional bearer token so
	// owners and unlocked students see sensitive fields.
	r.Route("/api/v1/properties", func(r chi.Router) {
		r.Get("/", controllers.PropertiesList(p.Properties, logg))
		r.With(middleware.OptionalAuth(cfg.JWT, p.Sessions, logg)).Get("/{propertyId}", controllers.PropertyDetail(p.Properties, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/landlord", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleLandlord), logg))
			r.Route("/properties", func(r chi.Router) {
				r.Get("/", controllers.LandlordListProperties(p.Properties, logg))
				r.Post("/", controllers.LandlordCreateProperty(p.Properties, logg))
				r.Patch("/{propertyId}", controllers.LandlordUpdateProperty(p.Properties, logg))
				r.Delete("/{propertyId}", controllers.LandlordDeleteProperty(p.Properties, logg))
			})
		})

		r.Route("/v1/media", func(r chi.Router) {
			r.Post("/presign", controllers.MediaPresign(p.Media, logg))
			r.Post("/{mediaId}/confirm", controllers.MediaConfirm(p.Media, logg))
			r.Get("/{mediaId}/url", controllers.MediaDownloadURL(p.Media, logg))
		})

		r.Route("/v1/reservations", func(r chi.Router) {
			r.Post("/quote", controllers.ReservationQuote(p.Reservations, logg))
			r.With(middleware.RequireRole(string(enums.UserRoleStudent), logg)).Post("/intent", controllers.ReservationIntent(p.Reservations, logg))
			r.Get("/", controllers.ReservationsList(p.Reservations, logg))
			r.Post("/{reservationId}/refund", controllers.ReservationRefund(p.Reservations, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(p.Redis, logg))
		r.Route("/v1/properties", func(r chi.Router) {
			r.Post("/{propertyId}/verify", controllers.AdminVerifyProperty(p.Properties, logg))
		})
	})

	return r
}
