package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmcalde/sitework/internal/auth"
	"github.com/dmcalde/sitework/internal/http/importcsv"
	"github.com/dmcalde/sitework/internal/http/payment"
	"github.com/dmcalde/sitework/internal/http/progress"
	"github.com/dmcalde/sitework/internal/http/project"
)

func New(
	jwtSecret string,
	projectsV1 *project.Handler,
	progressV1 *progress.Handler,
	paymentsV1 *payment.Handler,
	importV1 *importcsv.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSecret))

		r.Route("/projects", func(r chi.Router) {
			projectsV1.Routes(r)

			// Import is multipart, so the JSON content-type guard stays off
			// the progress group.
			r.Route("/{id}/progress", func(r chi.Router) {
				progressV1.Routes(r)
				r.Route("/import", importV1.Routes)
			})

			r.Route("/{id}/payments", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				paymentsV1.ProjectRoutes(r)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			paymentsV1.RequestRoutes(r)
		})
	})

	return router
}
