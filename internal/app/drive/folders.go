package drive

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratacloud/internal/app/system/authz"
	"github.com/dalemusser/stratacloud/internal/app/system/txn"
	"github.com/dalemusser/stratacloud/internal/app/store/folder"
	"github.com/dalemusser/stratacloud/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxNameLen = 255

func validName(name string) error {
	if name == "" {
		return errKind(KindInvalidInput, "name must not be empty")
	}
	if len(name) > maxNameLen {
		return errKind(KindInvalidInput, "name exceeds %d characters", maxNameLen)
	}
	return nil
}

// CreateFolder creates a folder under parentID (nil for root) in ownerID's
// tree. The parent, when given, must belong to the same owner even for an
// administrator: admin capability widens whose tree may be acted on, never
// which trees may be joined.
func (s *Service) CreateFolder(ctx context.Context, actor authz.Actor, ownerID primitive.ObjectID, name string, parentID *primitive.ObjectID) (*models.Folder, error) {
	if !actor.CanAccess(ownerID) {
		return nil, errKind(KindForbidden, "folder creation in another owner's tree")
	}
	if err := validName(name); err != nil {
		return nil, err
	}

	unlock := s.lockOwner(ownerID)
	defer unlock()

	if parentID != nil {
		parent, err := s.folders.GetByID(ctx, *parentID)
		if err != nil {
			return nil, notFoundOr(err, "parent folder %s", parentID.Hex())
		}
		if parent.OwnerID != ownerID {
			return nil, errKind(KindForbidden, "parent folder belongs to a different owner")
		}
	}

	exists, err := s.folders.NameExistsInParent(ctx, ownerID, name, parentID, nil)
	if err != nil {
		return nil, fmt.Errorf("checking sibling names: %w", err)
	}
	if exists {
		return nil, errKind(KindNameConflict, "a folder named %q already exists here", name)
	}

	created, err := s.folders.Create(ctx, folder.CreateInput{
		OwnerID:  ownerID,
		Name:     name,
		ParentID: parentID,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race with a concurrent create despite the lock (e.g.
			// an admin acting on the same owner out of band).
			return nil, errKind(KindNameConflict, "a folder named %q already exists here", name)
		}
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	s.logger.Info("folder created",
		zap.String("folder_id", created.ID.Hex()),
		zap.String("owner_id", ownerID.Hex()),
		zap.String("name", name))
	return created, nil
}

// RenameFolder renames a folder, enforcing sibling-name uniqueness at its
// current location.
func (s *Service) RenameFolder(ctx context.Context, actor authz.Actor, id primitive.ObjectID, name string) (*models.Folder, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	f, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "folder %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, errKind(KindForbidden, "folder belongs to a different owner")
	}

	unlock := s.lockOwner(f.OwnerID)
	defer unlock()

	exists, err := s.folders.NameExistsInParent(ctx, f.OwnerID, name, f.ParentID, &id)
	if err != nil {
		return nil, fmt.Errorf("checking sibling names: %w", err)
	}
	if exists {
		return nil, errKind(KindNameConflict, "a folder named %q already exists here", name)
	}

	if err := s.folders.Rename(ctx, id, name); err != nil {
		return nil, fmt.Errorf("renaming folder: %w", err)
	}
	return s.folders.GetByID(ctx, id)
}

// MoveFolder reparents a folder (nil moves it to the root level). Rejected
// moves leave the tree unchanged: SelfMove for the folder itself,
// CyclicMove when the destination lies inside the folder's own subtree,
// NameConflict when the destination already has a same-named sibling,
// Forbidden when the destination belongs to a different owner.
func (s *Service) MoveFolder(ctx context.Context, actor authz.Actor, id primitive.ObjectID, newParentID *primitive.ObjectID) (*models.Folder, error) {
	f, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "folder %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, errKind(KindForbidden, "folder belongs to a different owner")
	}

	unlock := s.lockOwner(f.OwnerID)
	defer unlock()

	if newParentID != nil {
		if *newParentID == id {
			return nil, errKind(KindSelfMove, "cannot move a folder into itself")
		}
		parent, err := s.folders.GetByID(ctx, *newParentID)
		if err != nil {
			return nil, notFoundOr(err, "destination folder %s", newParentID.Hex())
		}
		if parent.OwnerID != f.OwnerID {
			return nil, errKind(KindForbidden, "destination folder belongs to a different owner")
		}
		inside, err := s.folders.IsDescendant(ctx, *newParentID, id)
		if err != nil {
			return nil, fmt.Errorf("checking ancestry: %w", err)
		}
		if inside {
			return nil, errKind(KindCyclicMove, "destination lies inside the folder being moved")
		}
	}

	err = txn.Run(ctx, s.db, s.logger, func(ctx context.Context) error {
		exists, err := s.folders.NameExistsInParent(ctx, f.OwnerID, f.Name, newParentID, &id)
		if err != nil {
			return fmt.Errorf("checking sibling names: %w", err)
		}
		if exists {
			return errKind(KindNameConflict, "destination already has a folder named %q", f.Name)
		}
		return s.folders.SetParent(ctx, id, newParentID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder moved",
		zap.String("folder_id", id.Hex()),
		zap.String("owner_id", f.OwnerID.Hex()))
	return s.folders.GetByID(ctx, id)
}

// PurgeResult reports what a recursive purge removed and any non-fatal
// integrity warnings (payloads already missing or undeletable). A result
// with warnings is a partial success that callers must surface, never
// collapse into a plain OK.
type PurgeResult struct {
	Folders  int
	Files    int
	Warnings []string
}

// PurgeFolder irreversibly deletes a folder, every descendant folder and
// file, and their physical payloads. For each file the payload is deleted
// before the record; a payload that cannot be deleted is reported as a
// warning while the record is still removed (the owner's intent was
// deletion). Nodes outside the subtree are untouched.
func (s *Service) PurgeFolder(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*PurgeResult, error) {
	f, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "folder %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, errKind(KindForbidden, "folder belongs to a different owner")
	}

	unlock := s.lockOwner(f.OwnerID)
	defer unlock()

	subtree, err := s.folders.SubtreeIDs(ctx, f.OwnerID, id)
	if err != nil {
		return nil, fmt.Errorf("collecting subtree: %w", err)
	}

	files, err := s.files.ListByFolderIDs(ctx, f.OwnerID, subtree)
	if err != nil {
		return nil, fmt.Errorf("listing subtree files: %w", err)
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

	err = txn.Run(ctx, s.db, s.logger, func(ctx context.Context) error {
		return s.folders.DeleteByIDs(ctx, subtree)
	})
	if err != nil {
		return result, fmt.Errorf("deleting folder records: %w", err)
	}
	result.Folders = len(subtree)

	s.logger.Info("folder purged",
		zap.String("folder_id", id.Hex()),
		zap.String("owner_id", f.OwnerID.Hex()),
		zap.Int("folders", result.Folders),
		zap.Int("files", result.Files),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

// deleteFileAndPayload removes one file's payload then its record. A failed
// payload delete is returned as a warning, not an error: a payload missing
// from the blob store is tolerated, a still-present-but-undeletable payload
// is an orphan risk that must be surfaced. A failed record delete is a hard
// error.
func (s *Service) deleteFileAndPayload(ctx context.Context, f *models.File) (warning string, err error) {
	if err := s.blobs.Delete(ctx, f.StoragePath); err != nil {
		warning = fmt.Sprintf("payload %s could not be deleted: %v", f.StoragePath, err)
		s.logger.Warn("failed to delete payload from blob store",
			zap.String("file_id", f.ID.Hex()),
			zap.String("path", f.StoragePath),
			zap.Error(err))
	}
	if err := s.files.Delete(ctx, f.ID); err != nil {
		return warning, fmt.Errorf("deleting file record %s: %w", f.ID.Hex(), err)
	}
	return warning, nil
}
