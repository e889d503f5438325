// internal/app/features/sweep/routes.go
package sweep

import (
	"github.com/dalemusser/enrollhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the sweep subrouter. Both endpoints are operator-only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.HandleStatus)
	r.Post("/", h.HandleRun)
	return r
}
