package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"snapfeed/internal/handler"
	"snapfeed/internal/httputil"
	"snapfeed/internal/service"
	authmw "snapfeed/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	FollowHandler  *handler.FollowHandler
	FeedHandler    *handler.FeedHandler
	PostHandler    *handler.PostHandler
	CommentHandler *handler.CommentHandler
	Tokens         *service.TokenService
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", cfg.AuthHandler.Signup)
		r.Post("/login", cfg.AuthHandler.Login)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.Tokens))

		r.Get("/me", cfg.AuthHandler.Me)

		r.Route("/users", func(r chi.Router) {
			// Register before /{id} so "suggested" isn't matched as an id.
			r.Get("/suggested", cfg.UserHandler.Suggestions)
			r.Get("/{id}", cfg.UserHandler.GetProfile)
			r.Post("/{id}/follow", cfg.FollowHandler.Toggle)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", cfg.FeedHandler.GetFeed)
			r.Post("/", cfg.PostHandler.Create)
			r.Get("/{id}", cfg.PostHandler.GetByID)
			r.Delete("/{id}", cfg.PostHandler.Delete)
			r.Post("/{id}/like", cfg.PostHandler.ToggleLike)
			r.Get("/{id}/comment", cfg.CommentHandler.GetByPostID)
			r.Post("/{id}/comment", cfg.CommentHandler.Add)
		})
	})

	return r
}
