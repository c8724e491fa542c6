package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"inkpost/internal/handler"
	"inkpost/internal/httputil"
	"inkpost/internal/metrics"
	"inkpost/internal/model"
	"inkpost/internal/service"
	authmw "inkpost/internal/transport/http/middleware"
)

// Guard is one auth strategy mounted under /auth/{name}.
type Guard struct {
	Issuer  service.TokenIssuer
	Handler *handler.AuthHandler
}

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	Guards              []Guard
	PostsIssuer         service.TokenIssuer
	PostHandler         *handler.PostHandler
	MediaHandler        *handler.MediaHandler
	NotificationHandler *handler.NotificationHandler
	// HealthCheck reports whether required backends answer. Nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(authmw.RequestLog)
	r.Use(middleware.Recoverer)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(r.Context()); err != nil {
				httputil.WriteServiceError(w, r, err)
				return
			}
		}
		httputil.WriteSuccess(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	for _, g := range cfg.Guards {
		mountGuard(r, g, cfg.MediaHandler)
	}

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", cfg.PostHandler.List)
		r.Get("/{id}", cfg.PostHandler.Show)

		r.Group(func(r chi.Router) {
			r.Use(authmw.Authenticate(cfg.PostsIssuer))
			r.Post("/", cfg.PostHandler.Create)
			r.Put("/{id}", cfg.PostHandler.Update)
			r.Delete("/{id}", cfg.PostHandler.Delete)
		})
	})

	r.Route("/notification", func(r chi.Router) {
		r.Post("/send-topic-notification", cfg.NotificationHandler.SendToTopic)
		r.Post("/send-device-notification", cfg.NotificationHandler.SendToDevice)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, model.KindNotFound, "route not found")
	})

	return r
}

func mountGuard(r chi.Router, g Guard, media *handler.MediaHandler) {
	r.Route("/auth/"+g.Issuer.Name(), func(r chi.Router) {
		// Public routes - no authentication required
		r.Post("/register", g.Handler.Register)
		r.Post("/login", g.Handler.Login)
		if _, ok := g.Issuer.(handler.GoogleSignIn); ok {
			r.Post("/google", g.Handler.Google)
		}

		// Protected routes - require this guard's token
		r.Group(func(r chi.Router) {
			r.Use(authmw.Authenticate(g.Issuer))
			r.Get("/me", g.Handler.Me)
			r.Put("/me", g.Handler.UpdateMe)
			r.Post("/me/avatar", media.UploadAvatar)
			r.Post("/logout", g.Handler.Logout)
			if _, ok := g.Issuer.(service.Refresher); ok {
				r.Post("/refresh", g.Handler.Refresh)
			}
		})
	})
}
