package drive

import (
	"context"
	"fmt"

	"github.com/dalemusser/stratacloud/internal/app/system/authz"
	"github.com/dalemusser/stratacloud/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing is one level of an owner's tree: the folder itself (nil at the
// root level), the breadcrumb chain above it, and its direct children.
// Children are sorted by folded name; listing never recurses.
type Listing struct {
	Folder    *models.Folder
	Ancestors []models.Folder
	Folders   []models.Folder
	Files     []models.File
}

// ListFolder returns the contents of one folder, or of the root level when
// folderID is nil.
func (s *Service) ListFolder(ctx context.Context, actor authz.Actor, ownerID primitive.ObjectID, folderID *primitive.ObjectID) (*Listing, error) {
	if !actor.CanAccess(ownerID) {
		return nil, errKind(KindForbidden, "listing another owner's tree")
	}

	listing := &Listing{}
	if folderID != nil {
		f, err := s.folders.GetByID(ctx, *folderID)
		if err != nil {
			return nil, notFoundOr(err, "folder %s", folderID.Hex())
		}
		if f.OwnerID != ownerID {
			return nil, errKind(KindForbidden, "folder belongs to a different owner")
		}
		listing.Folder = f

		ancestors, err := s.folders.GetAncestors(ctx, *folderID)
		if err != nil {
			return nil, fmt.Errorf("loading ancestors: %w", err)
		}
		listing.Ancestors = ancestors
	}

	folders, err := s.folders.ListByParent(ctx, ownerID, folderID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	files, err := s.files.ListByFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	listing.Folders = folders
	listing.Files = files
	return listing, nil
}

// GetFile loads one file's metadata.
func (s *Service) GetFile(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.File, error) {
	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "file %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, errKind(KindForbidden, "file belongs to a different owner")
	}
	return f, nil
}

// GetFolder loads one folder's metadata.
func (s *Service) GetFolder(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (*models.Folder, error) {
	f, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "folder %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, errKind(KindForbidden, "folder belongs to a different owner")
	}
	return f, nil
}
