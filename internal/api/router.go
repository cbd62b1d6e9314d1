package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/torlist/internal/admission"
	"github.com/starford/torlist/internal/denylist"
	"github.com/starford/torlist/internal/directory"
)

// Deps are the services the API is built on.
type Deps struct {
	Admission *admission.Service
	Directory *directory.Service
	Denylist  *denylist.Service

	// AuthEnabled and Token configure the moderation guard.
	AuthEnabled bool
	Token       string

	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted. Reads and
// submissions are public; denylist mutations require the moderator token.
func NewRouter(d Deps) chi.Router {
	lh := NewListingHandler(d.Admission, d.Directory)
	dh := NewDenylistHandler(d.Denylist)
	guard := AuthMiddleware(d.AuthEnabled, d.Token)

	r := chi.NewRouter()

	r.Route("/entries", func(r chi.Router) {
		r.Post("/", lh.Submit)
		r.Get("/", lh.List)
		r.Get("/c/{category}", lh.ListByCategory)
	})

	r.Route("/blacklist", func(r chi.Router) {
		r.Get("/", dh.List)
		r.Get("/{id}", dh.Get)
		r.With(guard).Post("/", dh.Create)
		r.With(guard).Put("/{id}", dh.Update)
		r.With(guard).Delete("/{id}", dh.Delete)
	})

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
