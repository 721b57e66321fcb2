package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/api/handler"
	customMiddleware "github.com/Santhosh-Rony/growdigo-qdrant/internal/api/middleware"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/config"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/service"
)

// NewRouter creates and configures the HTTP router. limiter may be nil, in
// which case requests are not rate limited.
func NewRouter(cfg *config.Config, conversationService *service.ConversationService, limiter customMiddleware.Limiter) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{customMiddleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if limiter != nil {
		r.Use(customMiddleware.NewRateLimitMiddleware(limiter).Limit)
	}

	conversationHandler := handler.NewConversationHandler(conversationService)

	r.Get("/", handler.Root(cfg.App))
	r.Get("/health", handler.HealthCheck(conversationService))

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", conversationHandler.Create)

		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", conversationHandler.List)

			r.Route("/{conversationID}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Put("/", conversationHandler.Update)
				r.Delete("/", conversationHandler.Delete)
			})
		})
	})

	return r
}
