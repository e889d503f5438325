// internal/app/features/students/routes.go
package students

import (
	"github.com/dalemusser/enrollhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the students subrouter. Reads are open; every mutation
// requires an operator session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.HandleList)
	r.Get("/{id}", h.HandleView)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/", h.HandleCreate)
		r.Patch("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Put("/{id}/memberships", h.HandleSetMemberships)
		r.Post("/{id}/coins", h.HandleAddCoins)
	})

	return r
}
