// Package files provides the JSON and stream endpoints for file
// operations: multipart upload, download, rename, move, comment, delete
// and sharing.
package files

import (
	"io"
	"net/http"
	"time"

	"github.com/dalemusser/stratacloud/internal/app/drive"
	"github.com/dalemusser/stratacloud/internal/app/system/apierr"
	"github.com/dalemusser/stratacloud/internal/app/system/authz"
	"github.com/dalemusser/stratacloud/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacloud/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler handles file API requests.
type Handler struct {
	svc           *drive.Service
	logger        *zap.Logger
	maxUploadSize int64
}

// NewHandler creates a new files handler. maxUploadSize caps the request
// body of a multipart upload in bytes.
func NewHandler(svc *drive.Service, logger *zap.Logger, maxUploadSize int64) *Handler {
	return &Handler{svc: svc, logger: logger, maxUploadSize: maxUploadSize}
}

type fileView struct {
	ID               string  `json:"id"`
	OwnerID          string  `json:"owner_id"`
	FolderID         *string `json:"folder_id,omitempty"`
	Name             string  `json:"name"`
	Size             int64   `json:"size"`
	ContentType      string  `json:"content_type"`
	Comment          string  `json:"comment,omitempty"`
	Shared           bool    `json:"shared"`
	UploadedAt       string  `json:"uploaded_at"`
	LastDownloadedAt *string `json:"last_downloaded_at,omitempty"`
	DownloadCount    int64   `json:"download_count"`
}

func viewFile(f *models.File) fileView {
	v := fileView{
		ID:            f.ID.Hex(),
		OwnerID:       f.OwnerID.Hex(),
		Name:          f.Name,
		Size:          f.Size,
		ContentType:   f.ContentType,
		Comment:       f.Comment,
		Shared:        f.IsShared(),
		UploadedAt:    f.UploadedAt.Format(time.RFC3339),
		DownloadCount: f.DownloadCount,
	}
	if f.FolderID != nil {
		id := f.FolderID.Hex()
		v.FolderID = &id
	}
	if f.LastDownloadedAt != nil {
		ts := f.LastDownloadedAt.Format(time.RFC3339)
		v.LastDownloadedAt = &ts
	}
	return v
}

func actorOr401(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	actor, err := authz.FromRequest(r)
	if err != nil {
		jsonutil.ErrorKind(w, http.StatusUnauthorized, "no_identity", err.Error())
		return authz.Actor{}, false
	}
	return actor, true
}

func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid file id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// UploadHandler handles POST /files (multipart/form-data).
//
// Form fields:
//   - file      - the payload (required)
//   - owner_id  - target owner, defaults to the acting owner
//   - folder_id - target folder, empty for the root level
//   - comment   - optional free-text comment
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid multipart payload")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "missing file part")
		return
	}
	defer part.Close()

	ownerID := actor.UserID
	if raw := r.FormValue("owner_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid owner id")
			return
		}
		ownerID = id
	}

	var folderID *primitive.ObjectID
	if raw := r.FormValue("folder_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid folder id")
			return
		}
		folderID = &id
	}

	f, err := h.svc.Upload(r.Context(), actor, ownerID, drive.UploadInput{
		FolderID:     folderID,
		Name:         header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Comment:      r.FormValue("comment"),
		DeclaredSize: header.Size,
		Body:         part,
	})
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.Created(w, viewFile(f))
}

// GetHandler handles GET /files/{id}.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f, err := h.svc.GetFile(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.OK(w, viewFile(f))
}

// DownloadHandler handles GET /files/{id}/download.
func (h *Handler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rc, f, err := h.svc.Download(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	defer rc.Close()

	streamFile(w, h.logger, rc, f)
}

// streamFile writes one payload with download headers.
func streamFile(w http.ResponseWriter, logger *zap.Logger, rc io.Reader, f *models.File) {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Name+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		logger.Warn("download stream interrupted",
			zap.String("file_id", f.ID.Hex()),
			zap.Error(err))
	}
}

// RenameHandler handles POST /files/{id}/rename. The stored extension is
// preserved regardless of the requested name.
func (h *Handler) RenameHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		Name string `json:"name"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid JSON payload")
		return
	}

	f, err := h.svc.RenameFile(r.Context(), actor, id, in.Name)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.OK(w, viewFile(f))
}

// MoveHandler handles POST /files/{id}/move. A null or absent folder_id
// moves the file to the root level.
func (h *Handler) MoveHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		FolderID *string `json:"folder_id"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid JSON payload")
		return
	}

	var folderID *primitive.ObjectID
	if in.FolderID != nil && *in.FolderID != "" {
		fid, err := primitive.ObjectIDFromHex(*in.FolderID)
		if err != nil {
			jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid folder id")
			return
		}
		folderID = &fid
	}

	f, err := h.svc.MoveFile(r.Context(), actor, id, folderID)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.OK(w, viewFile(f))
}

// CommentHandler handles POST /files/{id}/comment.
func (h *Handler) CommentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		Comment string `json:"comment"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid JSON payload")
		return
	}

	f, err := h.svc.SetFileComment(r.Context(), actor, id, in.Comment)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.OK(w, viewFile(f))
}

// DeleteHandler handles DELETE /files/{id}.
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	warnings, err := h.svc.DeleteFile(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	if len(warnings) > 0 {
		jsonutil.OK(w, map[string][]string{"warnings": warnings})
		return
	}
	jsonutil.NoContent(w)
}

// ShareHandler handles POST /files/{id}/share with an action field of
// "share" or "revoke".
func (h *Handler) ShareHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		Action string `json:"action"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid JSON payload")
		return
	}

	switch in.Action {
	case "share":
		token, err := h.svc.ShareFile(r.Context(), actor, id)
		if err != nil {
			apierr.Write(w, h.logger, err)
			return
		}
		jsonutil.OK(w, map[string]string{"token": token})
	case "revoke":
		if err := h.svc.RevokeFileShare(r.Context(), actor, id); err != nil {
			apierr.Write(w, h.logger, err)
			return
		}
		jsonutil.NoContent(w)
	default:
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "action must be share or revoke")
	}
}
