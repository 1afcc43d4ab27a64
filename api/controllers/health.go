package controllers

import (
	"context"
	"net/http"

	"github.com/oselwa/storefront-backend/api/responses"
	"github.com/oselwa/storefront-backend/pkg/config"
	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
	"github.com/oselwa/storefront-backend/pkg/logger"
)

const envHeader = "X-Storefront-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the hard dependencies and reports per-dependency status.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]pinger{
			"db":    dbP,
			"redis": redisP,
		}
		statuses := map[string]string{}
		healthy := true
		for name, dep := range checks {
			if dep == nil {
				statuses[name] = "not configured"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				statuses[name] = "unavailable"
				healthy = false
				if logg != nil {
					ctx := logg.WithField(r.Context(), "dependency", name)
					logg.Error(ctx, "readiness check failed", err)
				}
				continue
			}
			statuses[name] = "ok"
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(statuses)
			responses.WriteError(r.Context(), nil, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": statuses})
	}
}
