package shares

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the public share endpoint.
//
// When mounted at /public:
//   - GET /public/{token} - Anonymous file download or folder zip
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/{token}", h.PublicHandler)
	return r
}
