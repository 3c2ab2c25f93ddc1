package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/craftkart/craftkart-backend/api/responses"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/logger"
)

const envHeader = "X-CraftKart-Env"

// Pinger is the dependency health surface checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness for the API's hard dependencies. Any failed
// check returns 503 with the per-dependency status map.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		statuses := map[string]string{}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				statuses[name] = "not configured"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				healthy = false
				statuses[name] = "unavailable"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				continue
			}
			statuses[name] = "ok"
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status":       readinessLabel(healthy),
			"dependencies": statuses,
		})
	}
}

func readinessLabel(healthy bool) string {
	if healthy {
		return "ready"
	}
	return "degraded"
}
