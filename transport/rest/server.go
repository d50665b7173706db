package rest

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/tictactoe-promo/internal/entity"
)

type messenger interface {
	Deliver(ctx context.Context, identity, text string) error
}

type userService interface {
	Track(ctx context.Context, identity entity.Identity) (*entity.User, bool, error)
}

type handlers struct {
	logger *slog.Logger

	messenger   messenger
	userService userService
}

// NewRouter wires the HTTP API. The WebSocket endpoint is mounted at /ws.
func NewRouter(logger *slog.Logger, messenger messenger, userService userService, ws http.Handler) http.Handler {
	h := &handlers{
		logger:      logger.With("component", "rest"),
		messenger:   messenger,
		userService: userService,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ping", h.ping)
	r.Route("/api", func(r chi.Router) {
		r.Post("/telegram", h.sendTelegram)
		r.Post("/users/track", h.trackUser)
	})

	if ws != nil {
		r.Handle("/ws", ws)
	}

	return r
}

// NewServer returns the HTTP server for handler. Request contexts derive from baseCtx.
func NewServer(baseCtx context.Context, port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}
}
