// Package folders provides the JSON endpoints for folder operations:
// create, browse, rename, move, purge, zip export and sharing.
package folders

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

// Handler handles folder API requests.
type Handler struct {
	svc    *drive.Service
	logger *zap.Logger
}

// NewHandler creates a new folders handler.
func NewHandler(svc *drive.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type folderView struct {
	ID        string  `json:"id"`
	OwnerID   string  `json:"owner_id"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parent_id,omitempty"`
	Shared    bool    `json:"shared"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func viewFolder(f *models.Folder) folderView {
	v := folderView{
		ID:        f.ID.Hex(),
		OwnerID:   f.OwnerID.Hex(),
		Name:      f.Name,
		Shared:    f.IsShared(),
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
		UpdatedAt: f.UpdatedAt.Format(time.RFC3339),
	}
	if f.ParentID != nil {
		p := f.ParentID.Hex()
		v.ParentID = &p
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
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid folder id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// optionalID parses a hex ObjectID pointer field; empty means nil (root).
func optionalID(raw *string) (*primitive.ObjectID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// CreateHandler handles POST /folders.
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	var in struct {
		OwnerID  string  `json:"owner_id"`
		Name     string  `json:"name"`
		ParentID *string `json:"parent_id"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid JSON payload")
		return
	}

	ownerID := actor.UserID
	if in.OwnerID != "" {
		id, err := primitive.ObjectIDFromHex(in.OwnerID)
		if err != nil {
			jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid owner id")
			return
		}
		ownerID = id
	}
	parentID, err := optionalID(in.ParentID)
	if err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid parent id")
		return
	}

	f, err := h.svc.CreateFolder(r.Context(), actor, ownerID, in.Name, parentID)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.Created(w, viewFolder(f))
}

// ListHandler handles GET /folders and GET /folders/{id}: the contents of
// one tree level, root when no id is present.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	ownerID := actor.UserID
	if raw := r.URL.Query().Get("owner_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid owner id")
			return
		}
		ownerID = id
	}

	var folderID *primitive.ObjectID
	if chi.URLParam(r, "id") != "" {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		folderID = &id
	}

	listing, err := h.svc.ListFolder(r.Context(), actor, ownerID, folderID)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}

	out := struct {
		Folder    *folderView  `json:"folder,omitempty"`
		Ancestors []folderView `json:"ancestors"`
		Folders   []folderView `json:"folders"`
		Files     []fileEntry  `json:"files"`
	}{
		Ancestors: make([]folderView, 0, len(listing.Ancestors)),
		Folders:   make([]folderView, 0, len(listing.Folders)),
		Files:     make([]fileEntry, 0, len(listing.Files)),
	}
	if listing.Folder != nil {
		v := viewFolder(listing.Folder)
		out.Folder = &v
	}
	for i := range listing.Ancestors {
		out.Ancestors = append(out.Ancestors, viewFolder(&listing.Ancestors[i]))
	}
	for i := range listing.Folders {
		out.Folders = append(out.Folders, viewFolder(&listing.Folders[i]))
	}
	for i := range listing.Files {
		out.Files = append(out.Files, viewFileEntry(&listing.Files[i]))
	}
	jsonutil.OK(w, out)
}

// fileEntry is the compact file view inside a listing.
type fileEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Shared      bool   `json:"shared"`
	UploadedAt  string `json:"uploaded_at"`
}

func viewFileEntry(f *models.File) fileEntry {
	return fileEntry{
		ID:          f.ID.Hex(),
		Name:        f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		Shared:      f.IsShared(),
		UploadedAt:  f.UploadedAt.Format(time.RFC3339),
	}
}

// RenameHandler handles POST /folders/{id}/rename.
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

	f, err := h.svc.RenameFolder(r.Context(), actor, id, in.Name)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.OK(w, viewFolder(f))
}

// MoveHandler handles POST /folders/{id}/move. A null or absent parent_id
// moves the folder to the root level.
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
		ParentID *string `json:"parent_id"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid JSON payload")
		return
	}
	parentID, err := optionalID(in.ParentID)
	if err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid parent id")
		return
	}

	f, err := h.svc.MoveFolder(r.Context(), actor, id, parentID)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.OK(w, viewFolder(f))
}

// PurgeHandler handles POST /folders/{id}/purge.
func (h *Handler) PurgeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.PurgeFolder(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.OK(w, struct {
		Folders  int      `json:"folders"`
		Files    int      `json:"files"`
		Warnings []string `json:"warnings,omitempty"`
	}{result.Folders, result.Files, result.Warnings})
}

// ZipHandler handles GET /folders/{id}/zip.
func (h *Handler) ZipHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rc, filename, err := h.svc.ExportFolderZip(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("zip stream interrupted", zap.Error(err))
	}
}

// ShareHandler handles POST /folders/{id}/share with an action field of
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
		token, err := h.svc.ShareFolder(r.Context(), actor, id)
		if err != nil {
			apierr.Write(w, h.logger, err)
			return
		}
		jsonutil.OK(w, map[string]string{"token": token})
	case "revoke":
		if err := h.svc.RevokeFolderShare(r.Context(), actor, id); err != nil {
			apierr.Write(w, h.logger, err)
			return
		}
		jsonutil.NoContent(w)
	default:
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "action must be share or revoke")
	}
}
