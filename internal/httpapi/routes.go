package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DoyleJ11/lobby-backend/internal/hub"
	"github.com/DoyleJ11/lobby-backend/internal/ws"
)

// SetupRoutes mounts the public API. logLevel, when non-nil, serves GET and
// PUT /loglevel (zap.AtomicLevel's JSON handler).
func SetupRoutes(h *hub.Hub, opts ws.Options, logLevel http.Handler) http.Handler {
	api := NewAPI(h, opts.DefaultTeamSize, opts.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/lobbies", api.CreateLobby)
	r.Get("/lobbies/{code}", api.GetLobby)
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, opts))

	if logLevel != nil {
		r.Method(http.MethodGet, "/loglevel", logLevel)
		r.Method(http.MethodPut, "/loglevel", logLevel)
	}
	return r
}
