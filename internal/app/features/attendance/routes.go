// internal/app/features/attendance/routes.go
package attendance

import (
	"github.com/dalemusser/enrollhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Register attaches the attendance endpoints to the groups router.
func Register(r chi.Router, h *Handler) {
	r.Get("/{id}/attendance", h.HandleList)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/{id}/attendance", h.HandleUpsert)
	})
}
