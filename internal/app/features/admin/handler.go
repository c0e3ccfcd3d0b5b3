// Package admin provides the owner-management endpoints: listing owners,
// creating them, adjusting quotas and purging accounts. Every endpoint
// requires administrative capability.
package admin

import (
	"net/http"
	"strconv"
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

// Handler handles admin API requests.
type Handler struct {
	svc    *drive.Service
	logger *zap.Logger
}

// NewHandler creates a new admin handler.
func NewHandler(svc *drive.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type ownerView struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Quota     int64  `json:"quota"`
	Admin     bool   `json:"admin"`
	CreatedAt string `json:"created_at"`
}

func viewOwner(u *models.User) ownerView {
	return ownerView{
		ID:        u.ID.Hex(),
		FullName:  u.FullName,
		Quota:     u.Quota,
		Admin:     u.Admin,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
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
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid owner id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func queryInt64(r *http.Request, key string) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ListHandler handles GET /admin/owners. Accepts optional limit and page
// query parameters; out-of-range values fall back to the defaults.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	limit := queryInt64(r, "limit")
	page := queryInt64(r, "page")
	users, err := h.svc.ListOwners(r.Context(), actor, limit, page)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}

	out := make([]ownerView, 0, len(users))
	for i := range users {
		out = append(out, viewOwner(&users[i]))
	}
	jsonutil.OK(w, out)
}

// CreateHandler handles POST /admin/owners.
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	var in struct {
		FullName string `json:"full_name"`
		Quota    int64  `json:"quota"`
		Admin    bool   `json:"admin"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid JSON payload")
		return
	}

	u, err := h.svc.CreateOwner(r.Context(), actor, in.FullName, in.Quota, in.Admin)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.Created(w, viewOwner(u))
}

// UsageHandler handles GET /admin/owners/{id}/usage.
func (h *Handler) UsageHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	usage, err := h.svc.GetUsage(r.Context(), actor, id)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.OK(w, struct {
		UsedBytes      int64 `json:"used_bytes"`
		QuotaBytes     int64 `json:"quota_bytes"`
		RemainingBytes int64 `json:"remaining_bytes"`
	}{usage.UsedBytes, usage.QuotaBytes, usage.RemainingBytes})
}

// QuotaHandler handles POST /admin/owners/{id}/quota.
func (h *Handler) QuotaHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in struct {
		Quota int64 `json:"quota"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.ErrorKind(w, http.StatusBadRequest, "invalid_input", "invalid JSON payload")
		return
	}

	u, err := h.svc.SetQuota(r.Context(), actor, id, in.Quota)
	if err != nil {
		apierr.Write(w, h.logger, err)
		return
	}
	jsonutil.OK(w, viewOwner(u))
}

// PurgeHandler handles DELETE /admin/owners/{id}.
func (h *Handler) PurgeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.PurgeOwner(r.Context(), actor, id)
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
