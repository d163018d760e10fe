package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/nestfinderhq/nestfinder-backend/api/responses"
	"github.com/nestfinderhq/nestfinder-backend/pkg/config"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
	"github.com/nestfinderhq/nestfinder-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// namedPinger pairs a dependency label with its health check.
type namedPinger struct {
	name string
	ping pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-NestFinder-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every hard dependency and reports the first window of
// failures together. Nil pingers are treated as not wired and skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis, gcs pinger) http.HandlerFunc {
	deps := []namedPinger{
		{name: "postgres", ping: db},
		{name: "redis", ping: redis},
		{name: "gcs", ping: gcs},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-NestFinder-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var errs error
		for _, dep := range deps {
			if dep.ping == nil {
				continue
			}
			if err := dep.ping.Ping(ctx); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", dep.name, err))
			}
		}

		if errs != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "readiness check failed"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
