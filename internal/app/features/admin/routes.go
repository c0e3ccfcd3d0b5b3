package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the owner-management endpoints.
//
// When mounted at /admin:
//   - GET    /admin/owners             - List owners
//   - POST   /admin/owners             - Create an owner
//   - GET    /admin/owners/{id}/usage  - Owner usage versus quota
//   - POST   /admin/owners/{id}/quota  - Replace an owner's quota
//   - DELETE /admin/owners/{id}        - Purge an owner and their tree
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/owners", h.ListHandler)
	r.Post("/owners", h.CreateHandler)
	r.Get("/owners/{id}/usage", h.UsageHandler)
	r.Post("/owners/{id}/quota", h.QuotaHandler)
	r.Delete("/owners/{id}", h.PurgeHandler)

	return r
}
