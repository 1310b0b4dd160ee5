package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ebi/internal/tagservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *tagservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Tag catalog.
	r.Get("/tags", h.ListTags)
	r.Post("/tags", h.CreateTag)
	r.Delete("/tags/{name}", h.DeleteTag)
	r.Get("/tags/{name}/files", h.Retrieve)

	// Direct and directory tags.
	r.Post("/files/tags", h.AttachFile)
	r.Delete("/files/tags", h.DetachFile)
	r.Post("/dirs/tags", h.AttachDir)
	r.Delete("/dirs/tags", h.DetachDir)

	r.Get("/query", h.Query)

	r.Post("/refresh", h.Refresh)
	r.Get("/stats", h.Stats)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
