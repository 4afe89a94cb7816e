package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"portfolio-chat/internal/handlers"
	"portfolio-chat/internal/middleware"
	"portfolio-chat/internal/web"
)

func New(
	logger *zap.Logger,
	visitorAuth *middleware.VisitorAuth,
	messageLimiter *middleware.RateLimiter,
	pageHandler *handlers.PageHandler,
	siteHandler *handlers.SiteHandler,
	chatHandler *handlers.ChatHandler,
	allowedOrigins ...string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/static/*", http.StripPrefix("/static/", web.Static()))

	// ──── Pages ────
	r.Group(func(r chi.Router) {
		r.Use(visitorAuth.Middleware)

		r.Get("/", pageHandler.Landing)
		r.Post("/", pageHandler.Ask)
		r.Get("/go/{preset}", pageHandler.Preset)

		r.Route("/chat", func(r chi.Router) {
			r.Get("/", pageHandler.Mount)
			r.Get("/{id}", pageHandler.Chat)
			r.Post("/{id}/reset", pageHandler.Reset)
			r.With(messageLimiter.Middleware).Post("/{id}/messages", pageHandler.Send)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(allowedOrigins...))

		r.Get("/site", siteHandler.Get)

		// ──── Chat Routes ────
		r.Route("/chat/sessions", func(r chi.Router) {
			r.Use(visitorAuth.Middleware)
			r.Post("/", chatHandler.Start)
			r.Get("/{id}", chatHandler.Get)
			r.Delete("/{id}", chatHandler.Delete)
			r.With(messageLimiter.Middleware).Post("/{id}/messages", chatHandler.SendMessage)

			// ──── WebSocket ────
			r.Get("/{id}/ws", chatHandler.Live)
		})
	})

	return r
}
