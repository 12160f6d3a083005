package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const readyTimeout = 2 * time.Second

type Pinger interface {
	Ping(context.Context) error
}

type breakerStater interface {
	BreakerState() string
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady fails while the session store is unreachable. An open catalog
// breaker is reported but does not fail readiness; cart and checkout still work.
func HealthReady(cfg *config.Config, logg *logger.Logger, store Pinger, catalog breakerStater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{}
		if store != nil {
			if err := store.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session store unavailable"))
				return
			}
			checks["session_store"] = "ok"
		}
		if catalog != nil {
			checks["catalog_breaker"] = catalog.BreakerState()
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
