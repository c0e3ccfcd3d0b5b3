package drive

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dalemusser/stratacloud/internal/app/store/file"
	"github.com/dalemusser/stratacloud/internal/app/system/authz"
	"github.com/dalemusser/stratacloud/internal/app/system/htmlsanitize"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/dalemusser/stratacloud/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UploadInput describes one incoming file.
type UploadInput struct {
	FolderID     *primitive.ObjectID // nil for the root level
	Name         string
	ContentType  string
	Comment      string
	DeclaredSize int64 // client-declared byte count, used for quota admission
	Body         io.Reader
}

// Upload admits and persists one file into ownerID's tree.
//
// Admission checks used+declared against the owner's quota before any bytes
// are written. The check is best effort: concurrent uploads each admitted
// against the same snapshot can together overshoot the ceiling, which is
// accepted over serializing all uploads behind the tree lock.
//
// The payload is written before the record, outside the owner lock so a
// slow stream never blocks tree mutations. The record insert itself runs
// under the lock with the target folder re-verified, so a purge that ran
// while bytes were streaming cannot leave a record pointing at a deleted
// folder. On any failure after bytes were written the payload is deleted
// best effort so no quota-invisible bytes linger.
func (s *Service) Upload(ctx context.Context, actor authz.Actor, ownerID primitive.ObjectID, input UploadInput) (*models.File, error) {
	if !actor.CanAccess(ownerID) {
		return nil, errKind(KindForbidden, "upload into another owner's tree")
	}
	if err := validName(input.Name); err != nil {
		return nil, err
	}
	if input.DeclaredSize < 0 {
		return nil, errKind(KindInvalidInput, "declared size must not be negative")
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, notFoundOr(err, "owner %s", ownerID.Hex())
	}

	if input.FolderID != nil {
		f, err := s.folders.GetByID(ctx, *input.FolderID)
		if err != nil {
			return nil, notFoundOr(err, "folder %s", input.FolderID.Hex())
		}
		if f.OwnerID != ownerID {
			return nil, errKind(KindForbidden, "folder belongs to a different owner")
		}
	}

	used, err := s.files.UsedBytes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("computing used bytes: %w", err)
	}
	if used+input.DeclaredSize > owner.Quota {
		return nil, errKind(KindQuotaExceeded,
			"upload of %d bytes exceeds quota (%d of %d bytes used)",
			input.DeclaredSize, used, owner.Quota)
	}

	path := storagePath(ownerID, input.FolderID, input.Name)
	counted := &countingReader{r: input.Body}

	putOpts := &storage.PutOptions{ContentType: input.ContentType}
	if err := s.blobs.Put(ctx, path, counted, putOpts); err != nil {
		// A failed write can still leave partial bytes behind.
		s.discardPayload(ctx, path)
		return nil, wrapKind(KindStorageFault, err, "writing payload %s", path)
	}

	unlock := s.lockOwner(ownerID)
	defer unlock()

	// Re-check under the lock: the folder verified above may have been
	// purged while the payload was streaming.
	if input.FolderID != nil {
		if _, err := s.folders.GetByID(ctx, *input.FolderID); err != nil {
			s.discardPayload(ctx, path)
			return nil, notFoundOr(err, "folder %s", input.FolderID.Hex())
		}
	}

	created, err := s.files.Create(ctx, file.CreateInput{
		OwnerID:     ownerID,
		FolderID:    input.FolderID,
		Name:        input.Name,
		StoragePath: path,
		Size:        counted.n,
		ContentType: input.ContentType,
		Comment:     htmlsanitize.Comment(input.Comment),
	})
	if err != nil {
		s.discardPayload(ctx, path)
		return nil, fmt.Errorf("creating file record: %w", err)
	}

	s.logger.Info("file uploaded",
		zap.String("file_id", created.ID.Hex()),
		zap.String("owner_id", ownerID.Hex()),
		zap.Int64("size", created.Size))
	return created, nil
}

// discardPayload removes an uploaded payload best effort after the upload
// could not complete. Failures are logged; the caller's error stands.
func (s *Service) discardPayload(ctx context.Context, path string) {
	if err := s.blobs.Delete(ctx, path); err != nil {
		s.logger.Warn("failed to remove orphaned payload",
			zap.String("path", path),
			zap.Error(err))
	}
}

// DeleteFile removes a file's payload and record. Like a purge, a failed
// payload delete degrades to a warning and the record is removed anyway.
func (s *Service) DeleteFile(ctx context.Context, actor authz.Actor, id primitive.ObjectID) ([]string, error) {
	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "file %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, errKind(KindForbidden, "file belongs to a different owner")
	}

	unlock := s.lockOwner(f.OwnerID)
	defer unlock()

	warning, err := s.deleteFileAndPayload(ctx, f)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		return []string{warning}, nil
	}
	return nil, nil
}

// Download streams a file's payload and records the access. A record whose
// payload has gone missing is an integrity fault, not a not-found.
func (s *Service) Download(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (io.ReadCloser, *models.File, error) {
	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFoundOr(err, "file %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, nil, errKind(KindForbidden, "file belongs to a different owner")
	}
	return s.openAndMark(ctx, f)
}

// openAndMark opens a file's payload and stamps the download statistics.
func (s *Service) openAndMark(ctx context.Context, f *models.File) (io.ReadCloser, *models.File, error) {
	rc, err := s.blobs.Get(ctx, f.StoragePath)
	if err != nil {
		return nil, nil, wrapKind(KindStorageFault, err, "payload %s missing or unreadable", f.StoragePath)
	}
	if err := s.files.MarkDownloaded(ctx, f.ID); err != nil {
		s.logger.Warn("failed to record download",
			zap.String("file_id", f.ID.Hex()),
			zap.Error(err))
	}
	return rc, f, nil
}

// RenameFile changes a file's display name while preserving its current
// extension. The blob path never changes; a rename is metadata only.
func (s *Service) RenameFile(ctx context.Context, actor authz.Actor, id primitive.ObjectID, name string) (*models.File, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "file %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, errKind(KindForbidden, "file belongs to a different owner")
	}

	newName := preserveExtension(f.Name, name)
	if err := s.files.Rename(ctx, id, newName); err != nil {
		return nil, fmt.Errorf("renaming file: %w", err)
	}
	return s.files.GetByID(ctx, id)
}

// preserveExtension keeps current's extension on the requested name. When
// current has no extension the requested name is taken verbatim; when the
// requested name carries its own extension it is replaced, not stacked.
func preserveExtension(current, requested string) string {
	ext := filepath.Ext(current)
	if ext == "" {
		return requested
	}
	base := strings.TrimSuffix(requested, filepath.Ext(requested))
	if base == "" {
		base = requested
	}
	return base + ext
}

// MoveFile relocates a file into another folder (nil for the root level).
// File names carry no uniqueness constraint, so moves never conflict.
func (s *Service) MoveFile(ctx context.Context, actor authz.Actor, id primitive.ObjectID, folderID *primitive.ObjectID) (*models.File, error) {
	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "file %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, errKind(KindForbidden, "file belongs to a different owner")
	}

	unlock := s.lockOwner(f.OwnerID)
	defer unlock()

	if folderID != nil {
		dest, err := s.folders.GetByID(ctx, *folderID)
		if err != nil {
			return nil, notFoundOr(err, "destination folder %s", folderID.Hex())
		}
		if dest.OwnerID != f.OwnerID {
			return nil, errKind(KindForbidden, "destination folder belongs to a different owner")
		}
	}

	if err := s.files.SetFolder(ctx, id, folderID); err != nil {
		return nil, fmt.Errorf("moving file: %w", err)
	}
	return s.files.GetByID(ctx, id)
}

// SetFileComment replaces a file's comment with a sanitized copy.
func (s *Service) SetFileComment(ctx context.Context, actor authz.Actor, id primitive.ObjectID, comment string) (*models.File, error) {
	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "file %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, errKind(KindForbidden, "file belongs to a different owner")
	}

	if err := s.files.SetComment(ctx, id, htmlsanitize.Comment(comment)); err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}
	return s.files.GetByID(ctx, id)
}
