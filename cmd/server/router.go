package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/vocab-api/internal/api"
	apimiddleware "github.com/phrazzld/vocab-api/internal/api/middleware"
)

// setupRouter builds the route tree with all handlers and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		app.config.Auth.TokenLifetimeMinutes,
		app.logger,
	)
	itemHandler := api.NewItemHandler(app.itemService, app.logger)
	reviewHandler := api.NewReviewHandler(
		app.reviewService,
		app.reviewLogStore,
		app.config.Review,
		app.logger,
	)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Public authentication endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Item management
			r.Post("/items", itemHandler.Create)
			r.Get("/items", itemHandler.List)
			r.Get("/items/weak", reviewHandler.WeakItems)
			r.Get("/items/{id}", itemHandler.Get)
			r.Put("/items/{id}", itemHandler.Update)
			r.Delete("/items/{id}", itemHandler.Delete)
			r.Post("/items/{id}/postpone", reviewHandler.PostponeItem)

			// Review sessions
			r.Post("/reviews/session", reviewHandler.StartSession)
			r.Post("/reviews/session/end", reviewHandler.EndSession)
			r.Post("/reviews/session/abandon", reviewHandler.AbandonSession)
			r.Post("/reviews/items/{id}/answer", reviewHandler.SubmitAnswer)
			r.Get("/reviews/due", reviewHandler.DueItems)
			r.Get("/reviews/history", reviewHandler.History)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
