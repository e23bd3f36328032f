package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/flowboard/internal/projects"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *projects.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(CORS)
	r.Use(AuthMiddleware(authEnabled, token))

	// Active project.
	r.Get("/status", h.GetStatus)
	r.Put("/status", h.PutStatus)

	// Workspace search.
	r.Get("/search", h.Search)

	r.Get("/projects", h.ListProjects)
	r.Route("/projects/{name}", func(r chi.Router) {
		// Task board.
		r.Get("/tasks", h.ListTasks)
		r.Post("/tasks", h.CreateTask)
		r.Put("/tasks/{id}", h.UpdateTask)
		r.Delete("/tasks/{id}", h.DeleteTask)

		// Canvas.
		r.Get("/canvas", h.GetCanvas)
		r.Post("/canvas/notes", h.CreateNote)
		r.Put("/canvas/notes/{id}", h.UpdateNote)
		r.Delete("/canvas/notes/{id}", h.DeleteNote)
		r.Post("/canvas/connections", h.Connect)
		r.Delete("/canvas/connections", h.Disconnect)
		r.Post("/canvas/promote", h.Promote)

		// Files.
		r.Get("/files", h.FileTree)
		r.Get("/files/*", h.ReadFile)
		r.Put("/files/*", h.WriteFile)

		r.Get("/search", h.Search)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
