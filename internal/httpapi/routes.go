package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/promptparty/internal/hub"
	"github.com/DoyleJ11/promptparty/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger, originPatterns ...string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/api/rooms", CreateRoom(h, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws/game", ws.Handler(h, log, originPatterns...))
	return r
}
