package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/eytgaming/tournament-platform/handlers"
	"github.com/eytgaming/tournament-platform/middleware"
	"github.com/eytgaming/tournament-platform/models"
)

// SetupRoutes wires every handler into the router. Read endpoints are
// public; anything that mutates state requires a token, and organizer
// actions additionally require the organizer or admin role.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	tournamentHandler *handlers.TournamentHandler,
	participantHandler *handlers.ParticipantHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))
	organizerOnly := middleware.Authorize(models.RoleOrganizer, models.RoleAdmin)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/confirm-email", authHandler.ConfirmEmail)
		r.Post("/forgot-password", authHandler.RequestPasswordReset)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	router.Route("/users", func(r chi.Router) {
		r.Get("/{id}", userHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateProfile)
			r.Post("/me/avatar", userHandler.UploadAvatar)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{id}", teamHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", teamHandler.Create)
			r.Put("/{id}", teamHandler.Update)
			r.Delete("/{id}", teamHandler.Delete)
			r.Post("/{id}/members", teamHandler.AddMember)
			r.Delete("/{id}/members/{userID}", teamHandler.RemoveMember)
			r.Put("/{id}/co-captain", teamHandler.SetCoCaptain)
			r.Post("/{id}/logo", teamHandler.UploadLogo)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{id}", tournamentHandler.GetByID)
		r.Get("/{id}/bracket", tournamentHandler.GetBracket)
		r.Get("/{id}/participants", participantHandler.List)
		r.Get("/{id}/matches", matchHandler.ListByTournament)
		r.Get("/{id}/ws", webSocketHandler.ServeTournament)

		// Participant actions: any authenticated user.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{id}/register", participantHandler.Register)
			r.Post("/{id}/check-in", participantHandler.CheckIn)
		})

		// Organizer actions.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(organizerOnly)

			r.Post("/", tournamentHandler.Create)
			r.Put("/{id}", tournamentHandler.Update)
			r.Delete("/{id}", tournamentHandler.Delete)
			r.Post("/{id}/banner", tournamentHandler.UploadBanner)

			r.Post("/{id}/open-registration", tournamentHandler.OpenRegistration)
			r.Post("/{id}/start-check-in", tournamentHandler.StartCheckIn)
			r.Post("/{id}/start", tournamentHandler.Start)
			r.Post("/{id}/complete", tournamentHandler.Complete)
			r.Post("/{id}/cancel", tournamentHandler.Cancel)
			r.Post("/{id}/bracket/regenerate", tournamentHandler.RegenerateBracket)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/{id}/check-ins/reconcile", participantHandler.ReconcileCheckIns)
		})
	})

	router.Route("/participants", func(r chi.Router) {
		r.Use(authenticate)
		r.Delete("/{participantID}", participantHandler.Withdraw)
		r.Post("/{participantID}/disqualify", participantHandler.Disqualify)
		r.Post("/{participantID}/check-out", participantHandler.CheckOut)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(organizerOnly)
			r.Post("/{matchID}/result", matchHandler.ReportResult)
		})
	})
}
