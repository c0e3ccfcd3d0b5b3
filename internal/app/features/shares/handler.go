// Package shares provides the anonymous share endpoint. A valid token is
// the entire credential: no identity headers are read here.
package shares

import (
	"io"
	"net/http"

	"github.com/dalemusser/stratacloud/internal/app/drive"
	"github.com/dalemusser/stratacloud/internal/app/system/apierr"
	"github.com/dalemusser/stratacloud/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler handles public share requests.
type Handler struct {
	svc    *drive.Service
	logger *zap.Logger
}

// NewHandler creates a new shares handler.
func NewHandler(svc *drive.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// PublicHandler handles GET /public/{token}. A file token streams the
// payload; a folder token streams a zip of the subtree. Unknown and
// revoked tokens are indistinguishable 404s.
func (h *Handler) PublicHandler(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		jsonutil.ErrorKind(w, http.StatusNotFound, "not_found", "share token not recognized")
		return
	}

	target, err := h.svc.Resolve(r.Context(), token)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}

	if target.File != nil {
		rc, f, err := h.svc.OpenSharedFile(r.Context(), token)
		if err != nil {
			apierr.Write(w, h.logger, err)
			return
		}
		defer rc.Close()

		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Content-Disposition", `attachment; filename="`+f.Name+`"`)
		if _, err := io.Copy(w, rc); err != nil {
			h.logger.Warn("shared download interrupted", zap.Error(err))
		}
		return
	}

	rc, filename, err := h.svc.ExportSharedFolder(r.Context(), token)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("shared export interrupted", zap.Error(err))
	}
}
