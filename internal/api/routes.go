package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/neonwave/radioboard/internal/gateway"
	"github.com/neonwave/radioboard/internal/push"
)

// SetupRoutes wires the REST surface and the push channel.
func SetupRoutes(svc *gateway.Service, hub *push.Hub) http.Handler {
	h := &Handlers{Service: svc}
	ws := &WSHandler{Service: svc, Hub: hub}

	r := chi.NewRouter()
	r.Use(LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tracks", h.ListTracks)
		r.Get("/tracks/search", h.SearchTracks)
		r.Post("/tracks", h.CreateTrack)

		r.Get("/queue", h.GetQueue)
		r.Post("/queue", h.AddToQueue)
		r.Delete("/queue", h.ClearQueue)
		r.Delete("/queue/{id}", h.RemoveFromQueue)

		r.Get("/chat", h.GetChat)

		r.Get("/comments", h.ListComments)
		r.Post("/comments", h.PostComment)
		r.Post("/comments/{id}/like", h.LikeComment)

		r.Get("/radio-state", h.GetRadioState)
		r.Put("/radio-state", h.UpdateRadioState)

		r.Post("/irc/request", h.IRCRequest)

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Put("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)
	})

	r.Get("/ws", ws.HandleWS)

	return r
}
