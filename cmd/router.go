package main

import (
	"net/http"

	"BotDeck/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func SetupRouter(s *api.Server, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(api.CORS)

	r.Get("/health", s.HandleHealthCheck)

	// OAuth callback is reached by the user's browser from the provider.
	r.Get("/oauth/callback", s.HandleOAuthCallback)

	r.Group(func(r chi.Router) {
		r.Use(s.RequireServiceKey)

		r.Route("/api/bot", func(r chi.Router) {
			r.Get("/ping", s.HandleBotPing)
			r.Get("/status", s.HandleBotStatus)
			r.Get("/commands", s.HandleBotCommands)
			r.Get("/servers", s.HandleBotServers)
			r.Get("/services", s.HandleBotServices)
			r.Post("/log-command", s.HandleLogCommand)
			r.Post("/user-connections", s.HandleUserConnections)
			r.Post("/disconnect-service", s.HandleDisconnectService)
		})

		r.Post("/oauth/init", s.HandleOAuthInit)
		r.Post("/oauth/disconnect", s.HandleDisconnectService)
		r.Post("/calendar/create", s.HandleCalendarCreate)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(s.RequireUser)

		r.Get("/stats", s.HandleDashboardStats)
		r.Get("/commands", s.HandleListCommands)
		r.Get("/servers", s.HandleListServers)
		r.Get("/status", s.HandleGetStatus)
		r.Get("/connections", s.HandleListConnections)
		r.Get("/logs", s.HandleListLogs)
		r.Get("/operations", s.HandleListOperations)

		r.Group(func(r chi.Router) {
			r.Use(s.RequireAdmin)
			r.Post("/commands", s.HandleCreateCommand)
			r.Put("/commands/{id}", s.HandleUpdateCommand)
			r.Delete("/commands/{id}", s.HandleDeleteCommand)
			r.Post("/servers", s.HandleCreateServer)
			r.Delete("/servers/{id}", s.HandleDeleteServer)
			r.Put("/status", s.HandleSetStatus)
			r.Post("/operations", s.HandleRunOperation)
		})
	})

	return r
}
