package drive

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratacloud/internal/app/system/authz"
	userstore "github.com/dalemusser/stratacloud/internal/app/store/users"
	"github.com/dalemusser/stratacloud/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Usage is an owner's storage position: bytes consumed against the ceiling.
type Usage struct {
	UsedBytes      int64
	QuotaBytes     int64
	RemainingBytes int64
}

// GetUsage computes an owner's usage. Consumption is always recomputed from
// the live file records, so a crashed upload or purge can never leave the
// number stale.
func (s *Service) GetUsage(ctx context.Context, actor authz.Actor, ownerID primitive.ObjectID) (*Usage, error) {
	if !actor.CanAccess(ownerID) {
		return nil, errKind(KindForbidden, "usage of another owner")
	}
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, notFoundOr(err, "owner %s", ownerID.Hex())
	}
	used, err := s.files.UsedBytes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("computing used bytes: %w", err)
	}

	remaining := owner.Quota - used
	if remaining < 0 {
		// Quota lowered below current consumption; existing files stay.
		remaining = 0
	}
	return &Usage{
		UsedBytes:      used,
		QuotaBytes:     owner.Quota,
		RemainingBytes: remaining,
	}, nil
}

// CreateOwner registers a new owner account. Administrative.
func (s *Service) CreateOwner(ctx context.Context, actor authz.Actor, fullName string, quota int64, admin bool) (*models.User, error) {
	if !actor.Admin {
		return nil, errKind(KindForbidden, "owner creation requires administrative capability")
	}
	if err := validName(fullName); err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, userstore.CreateInput{
		FullName: fullName,
		Quota:    quota,
		Admin:    admin,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrNegativeQuota) {
			return nil, errKind(KindNegativeQuota, "quota must not be negative")
		}
		return nil, fmt.Errorf("creating owner: %w", err)
	}

	s.logger.Info("owner created",
		zap.String("owner_id", u.ID.Hex()),
		zap.Int64("quota", u.Quota))
	return u, nil
}

// GetOwner loads one owner account.
func (s *Service) GetOwner(ctx context.Context, actor authz.Actor, ownerID primitive.ObjectID) (*models.User, error) {
	if !actor.CanAccess(ownerID) {
		return nil, errKind(KindForbidden, "owner record belongs to someone else")
	}
	u, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, notFoundOr(err, "owner %s", ownerID.Hex())
	}
	return u, nil
}

// ListOwners returns a page of owner accounts. Administrative.
func (s *Service) ListOwners(ctx context.Context, actor authz.Actor, limit, page int64) ([]models.User, error) {
	if !actor.Admin {
		return nil, errKind(KindForbidden, "owner listing requires administrative capability")
	}
	users, err := s.users.List(ctx, limit, page)
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}
	return users, nil
}

// SetQuota replaces an owner's byte ceiling. Administrative. Lowering the
// ceiling below current consumption is allowed: existing files remain and
// only new uploads are blocked.
func (s *Service) SetQuota(ctx context.Context, actor authz.Actor, ownerID primitive.ObjectID, quota int64) (*models.User, error) {
	if !actor.Admin {
		return nil, errKind(KindForbidden, "quota changes require administrative capability")
	}
	if err := s.users.SetQuota(ctx, ownerID, quota); err != nil {
		if errors.Is(err, userstore.ErrNegativeQuota) {
			return nil, errKind(KindNegativeQuota, "quota must not be negative")
		}
		return nil, notFoundOr(err, "owner %s", ownerID.Hex())
	}

	s.logger.Info("quota updated",
		zap.String("owner_id", ownerID.Hex()),
		zap.Int64("quota", quota))
	return s.users.GetByID(ctx, ownerID)
}

// PurgeOwner deletes an owner's entire tree, every payload, and finally the
// owner record. Administrative. Payload failures degrade to warnings the
// same way a folder purge does.
func (s *Service) PurgeOwner(ctx context.Context, actor authz.Actor, ownerID primitive.ObjectID) (*PurgeResult, error) {
	if !actor.Admin {
		return nil, errKind(KindForbidden, "owner purge requires administrative capability")
	}
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, notFoundOr(err, "owner %s", ownerID.Hex())
	}

	unlock := s.lockOwner(ownerID)
	defer unlock()

	files, err := s.files.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing owner files: %w", err)
	}

	result := &PurgeResult{}
	for i := range files {
		warning, err := s.deleteFileAndPayload(ctx, &files[i])
		if err != nil {
			return result, err
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		result.Files++
	}

	folders, err := s.folders.ListByOwner(ctx, ownerID)
	if err != nil {
		return result, fmt.Errorf("listing owner folders: %w", err)
	}
	ids := make([]primitive.ObjectID, len(folders))
	for i, f := range folders {
		ids[i] = f.ID
	}
	if err := s.folders.DeleteByIDs(ctx, ids); err != nil {
		return result, fmt.Errorf("deleting folder records: %w", err)
	}
	result.Folders = len(ids)

	if err := s.users.Delete(ctx, ownerID); err != nil {
		return result, fmt.Errorf("deleting owner record: %w", err)
	}

	s.logger.Info("owner purged",
		zap.String("owner_id", ownerID.Hex()),
		zap.Int("folders", result.Folders),
		zap.Int("files", result.Files),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}
