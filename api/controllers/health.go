package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/aquadrop/api/responses"
	"github.com/angelmondragon/aquadrop/pkg/config"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/logger"
)

const readyTimeout = 3 * time.Second

// Pinger is satisfied by the firestore, sqlite, redis and pubsub clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency names a backend checked by the readiness endpoint.
type Dependency struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Aquadrop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and reports 503 when any is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Aquadrop-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		healthy := true
		for _, dep := range deps {
			if dep.Pinger == nil {
				continue
			}
			if err := dep.Pinger.Ping(ctx); err != nil {
				healthy = false
				checks[dep.Name] = "down"
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": dep.Name, "error": err.Error()}), "health.ready.dependency_down")
				}
				continue
			}
			checks[dep.Name] = "up"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
