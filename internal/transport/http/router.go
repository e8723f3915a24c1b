// Package httptransport assembles the HTTP API. It wires middleware and the
// per-module handlers; business logic stays in the services.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dokflyt/internal/platform/middleware"
	"dokflyt/internal/transport/http/shared"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig carries cross-cutting router settings.
type RouterConfig struct {
	// JWTSigningKey verifies caller identity tokens on the API routes.
	JWTSigningKey string
}

// NewRouter wires all endpoints. API routes sit behind caller-identity
// verification; health and metrics do not.
func NewRouter(cfg RouterConfig, logger *slog.Logger, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))

	r.Get("/internal/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.CallerIdentity(cfg.JWTSigningKey, logger))
		for _, h := range handlers {
			h.Register(api)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
