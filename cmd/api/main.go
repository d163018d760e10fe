package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nestfinderhq/nestfinder-backend/api/routes"
	"github.com/nestfinderhq/nestfinder-backend/internal/auth"
	"github.com/nestfinderhq/nestfinder-backend/internal/media"
	"github.com/nestfinderhq/nestfinder-backend/internal/properties"
	"github.com/nestfinderhq/nestfinder-backend/internal/reservations"
	"github.com/nestfinderhq/nestfinder-backend/internal/users"
	stripewebhook "github.com/nestfinderhq/nestfinder-backend/internal/webhooks/stripe"
	"github.com/nestfinderhq/nestfinder-backend/pkg/auth/session"
	"github.com/nestfinderhq/nestfinder-backend/pkg/config"
	"github.com/nestfinderhq/nestfinder-backend/pkg/db"
	"github.com/nestfinderhq/nestfinder-backend/pkg/logger"
	"github.com/nestfinderhq/nestfinder-backend/pkg/metrics"
	"github.com/nestfinderhq/nestfinder-backend/pkg/migrate"
	"github.com/nestfinderhq/nestfinder-backend/pkg/outbox"
	"github.com/nestfinderhq/nestfinder-backend/pkg/outbox/idempotency"
	"github.com/nestfinderhq/nestfinder-backend/pkg/redis"
	"github.com/nestfinderhq/nestfinder-backend/pkg/storage/gcs"
	"github.com/nestfinderhq/nestfinder-backend/pkg/stripe"
)

// webhookDedupeTTL covers Stripe's retry window with room to spare.
const webhookDedupeTTL = 72 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create register service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	reservationMetrics := metrics.NewReservationMetrics(prometheus.DefaultRegisterer)

	propertyRepo := properties.NewRepository(dbClient.DB())

	reservationsService, err := reservations.NewService(reservations.ServiceParams{
		Repo:       reservations.NewRepository(dbClient.DB()),
		DB:         dbClient,
		Properties: propertyRepo,
		Outbox:     outboxService,
		Stripe:     reservations.NewStripeClient(stripeClient),
		Metrics:    reservationMetrics,
		Config:     cfg.Reservations,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create reservations service", err)
		os.Exit(1)
	}

	propertiesService, err := properties.NewService(propertyRepo, dbClient, reservationsService, outboxService, cfg.Reservations)
	if err != nil {
		logg.Error(ctx, "failed to create properties service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(media.ServiceParams{
		Repo:        media.NewRepository(dbClient.DB()),
		Properties:  propertyRepo,
		Unlocks:     reservationsService,
		GCS:         gcsClient,
		Bucket:      cfg.GCS.BucketName,
		UploadTTL:   cfg.GCS.UploadURLExpiry,
		DownloadTTL: cfg.GCS.DownloadURLExpiry,
		MaxUploadMB: cfg.Media.MaxUploadMB,
	})
	if err != nil {
		logg.Error(ctx, "failed to create media service", err)
		os.Exit(1)
	}

	webhookGuard, err := idempotency.NewManager(redisClient, webhookDedupeTTL)
	if err != nil {
		logg.Error(ctx, "failed to create webhook guard", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Reservations: reservationsService,
		Idempotency:  webhookGuard,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			GCS:          gcsClient,
			Sessions:     sessionManager,
			Auth:         authService,
			Register:     registerService,
			Properties:   propertiesService,
			Media:        mediaService,
			Reservations: reservationsService,
			Stripe:       stripeClient,
			Webhook:      webhookService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
