package drive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/dalemusser/stratacloud/internal/app/system/authz"
	"github.com/dalemusser/stratacloud/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ExportFolderZip builds a zip archive of the folder's entire subtree and
// returns a reader over it plus the suggested download filename
// ("<folder name>.zip"). Closing the reader removes the backing temp file.
func (s *Service) ExportFolderZip(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (io.ReadCloser, string, error) {
	f, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return nil, "", notFoundOr(err, "folder %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return nil, "", errKind(KindForbidden, "folder belongs to a different owner")
	}
	return s.exportZip(ctx, f)
}

// exportZip archives f's subtree. Archive entry paths mirror the tree with
// the exported folder's own name as the top-level directory; empty folders
// appear as directory entries so the extracted layout matches the tree. A
// payload missing mid-export aborts the archive rather than shipping a
// silently incomplete one.
func (s *Service) exportZip(ctx context.Context, f *models.Folder) (io.ReadCloser, string, error) {
	subtree, err := s.folders.SubtreeIDs(ctx, f.OwnerID, f.ID)
	if err != nil {
		return nil, "", fmt.Errorf("collecting subtree: %w", err)
	}

	arcDirs, err := s.subtreeArcPaths(ctx, f, subtree)
	if err != nil {
		return nil, "", err
	}

	files, err := s.files.ListByFolderIDs(ctx, f.OwnerID, subtree)
	if err != nil {
		return nil, "", fmt.Errorf("listing subtree files: %w", err)
	}

	tmp, err := os.CreateTemp("", "stratacloud-zip-*")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp archive: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	zw := zip.NewWriter(tmp)

	for _, id := range subtree {
		if id == f.ID {
			continue
		}
		if _, err := zw.Create(arcDirs[id] + "/"); err != nil {
			cleanup()
			return nil, "", fmt.Errorf("writing directory entry: %w", err)
		}
	}

	for i := range files {
		if err := s.addZipEntry(ctx, zw, arcDirs, &files[i]); err != nil {
			cleanup()
			return nil, "", err
		}
	}

	if err := zw.Close(); err != nil {
		cleanup()
		return nil, "", fmt.Errorf("finalizing archive: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, "", fmt.Errorf("rewinding archive: %w", err)
	}

	s.logger.Info("folder exported",
		zap.String("folder_id", f.ID.Hex()),
		zap.String("owner_id", f.OwnerID.Hex()),
		zap.Int("files", len(files)))
	return &tempFileReader{f: tmp}, f.Name + ".zip", nil
}

// subtreeArcPaths maps every subtree folder ID to its archive directory
// path, rooted at the exported folder's name.
func (s *Service) subtreeArcPaths(ctx context.Context, root *models.Folder, subtree []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	byID := make(map[primitive.ObjectID]models.Folder, len(subtree))
	all, err := s.folders.ListByOwner(ctx, root.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("loading owner folders: %w", err)
	}
	for _, f := range all {
		byID[f.ID] = f
	}

	arcDirs := make(map[primitive.ObjectID]string, len(subtree))
	arcDirs[root.ID] = root.Name
	for _, id := range subtree {
		if _, ok := arcDirs[id]; ok {
			continue
		}
		if _, err := resolveArcPath(byID, arcDirs, root.ID, id); err != nil {
			return nil, err
		}
	}
	return arcDirs, nil
}

// resolveArcPath fills arcDirs for id and every ancestor up to root.
func resolveArcPath(byID map[primitive.ObjectID]models.Folder, arcDirs map[primitive.ObjectID]string, rootID, id primitive.ObjectID) (string, error) {
	if p, ok := arcDirs[id]; ok {
		return p, nil
	}
	f, ok := byID[id]
	if !ok || f.ParentID == nil {
		return "", fmt.Errorf("folder %s detached from export root %s", id.Hex(), rootID.Hex())
	}
	parentPath, err := resolveArcPath(byID, arcDirs, rootID, *f.ParentID)
	if err != nil {
		return "", err
	}
	p := path.Join(parentPath, f.Name)
	arcDirs[id] = p
	return p, nil
}

func (s *Service) addZipEntry(ctx context.Context, zw *zip.Writer, arcDirs map[primitive.ObjectID]string, f *models.File) error {
	dir, ok := arcDirs[derefFolderID(f.FolderID)]
	if !ok {
		return fmt.Errorf("file %s references folder outside the export subtree", f.ID.Hex())
	}

	rc, err := s.blobs.Get(ctx, f.StoragePath)
	if err != nil {
		return wrapKind(KindStorageFault, err, "payload %s missing during export", f.StoragePath)
	}
	defer rc.Close()

	w, err := zw.Create(path.Join(dir, f.Name))
	if err != nil {
		return fmt.Errorf("writing archive entry: %w", err)
	}
	if _, err := io.Copy(w, rc); err != nil {
		return wrapKind(KindStorageFault, err, "copying payload %s into archive", f.StoragePath)
	}
	return nil
}

func derefFolderID(id *primitive.ObjectID) primitive.ObjectID {
	if id == nil {
		return primitive.NilObjectID
	}
	return *id
}

// tempFileReader streams a finished temp file and removes it on Close.
type tempFileReader struct {
	f *os.File
}

func (t *tempFileReader) Read(p []byte) (int, error) { return t.f.Read(p) }

func (t *tempFileReader) Close() error {
	err := t.f.Close()
	if rmErr := os.Remove(t.f.Name()); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
