// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns the login/logout subrouter, mounted at the root.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	return r
}
