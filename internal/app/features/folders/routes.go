package folders

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the folder endpoints.
//
// When mounted at /folders:
//   - POST   /folders              - Create a folder
//   - GET    /folders              - List the root level
//   - GET    /folders/{id}         - List a folder's contents
//   - POST   /folders/{id}/rename  - Rename a folder
//   - POST   /folders/{id}/move    - Move a folder
//   - POST   /folders/{id}/purge   - Recursively delete a folder
//   - GET    /folders/{id}/zip     - Download the subtree as a zip
//   - POST   /folders/{id}/share   - Issue or revoke the share token
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.CreateHandler)
	r.Get("/", h.ListHandler)
	r.Get("/{id}", h.ListHandler)
	r.Post("/{id}/rename", h.RenameHandler)
	r.Post("/{id}/move", h.MoveHandler)
	r.Post("/{id}/purge", h.PurgeHandler)
	r.Get("/{id}/zip", h.ZipHandler)
	r.Post("/{id}/share", h.ShareHandler)

	return r
}
