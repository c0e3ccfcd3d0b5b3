package files

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the file endpoints.
//
// When mounted at /files:
//   - POST   /files                - Upload a file (multipart)
//   - GET    /files/{id}           - File metadata
//   - GET    /files/{id}/download  - Stream the payload
//   - POST   /files/{id}/rename    - Rename a file
//   - POST   /files/{id}/move      - Move a file
//   - POST   /files/{id}/comment   - Replace the comment
//   - POST   /files/{id}/share     - Issue or revoke the share token
//   - DELETE /files/{id}           - Delete payload and record
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.UploadHandler)
	r.Get("/{id}", h.GetHandler)
	r.Get("/{id}/download", h.DownloadHandler)
	r.Post("/{id}/rename", h.RenameHandler)
	r.Post("/{id}/move", h.MoveHandler)
	r.Post("/{id}/comment", h.CommentHandler)
	r.Post("/{id}/share", h.ShareHandler)
	r.Delete("/{id}", h.DeleteHandler)

	return r
}
