package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"finboard/internal/handlers"
	"finboard/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	dh := handlers.NewDashboardHandlers(deps)
	ph := handlers.NewProviderHandlers(deps)
	eh := handlers.NewEventHandlers(deps)

	r.Mount("/dashboard", dh.DashboardRoutes())
	r.Mount("/providers", ph.ProviderRoutes())
	r.Get("/events", eh.Stream)
	return r
}
