package drive

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/dalemusser/stratacloud/internal/app/system/authz"
	"github.com/dalemusser/stratacloud/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// newShareToken returns a fresh 32-character hex token. 128 bits of
// randomness makes token collisions and guessing equally implausible; the
// unique sparse indexes on share_token are the backstop.
func newShareToken() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generating share token: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}

// ShareFile enables anonymous access to a file and returns its token.
// Sharing an already-shared file returns the existing token unchanged.
func (s *Service) ShareFile(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (string, error) {
	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		return "", notFoundOr(err, "file %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return "", errKind(KindForbidden, "file belongs to a different owner")
	}
	if f.IsShared() {
		return *f.ShareToken, nil
	}

	token, err := newShareToken()
	if err != nil {
		return "", err
	}
	if err := s.files.SetShareToken(ctx, id, token); err != nil {
		return "", fmt.Errorf("storing share token: %w", err)
	}

	s.logger.Info("file shared", zap.String("file_id", id.Hex()))
	return token, nil
}

// RevokeFileShare disables anonymous access to a file. The token is
// discarded; sharing again later issues a different one.
func (s *Service) RevokeFileShare(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	f, err := s.files.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "file %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return errKind(KindForbidden, "file belongs to a different owner")
	}
	if err := s.files.ClearShareToken(ctx, id); err != nil {
		return fmt.Errorf("clearing share token: %w", err)
	}
	s.logger.Info("file share revoked", zap.String("file_id", id.Hex()))
	return nil
}

// ShareFolder enables anonymous zip export of a folder's subtree and
// returns its token. Idempotent like ShareFile.
func (s *Service) ShareFolder(ctx context.Context, actor authz.Actor, id primitive.ObjectID) (string, error) {
	f, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return "", notFoundOr(err, "folder %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return "", errKind(KindForbidden, "folder belongs to a different owner")
	}
	if f.IsShared() {
		return *f.ShareToken, nil
	}

	token, err := newShareToken()
	if err != nil {
		return "", err
	}
	if err := s.folders.SetShareToken(ctx, id, token); err != nil {
		return "", fmt.Errorf("storing share token: %w", err)
	}

	s.logger.Info("folder shared", zap.String("folder_id", id.Hex()))
	return token, nil
}

// RevokeFolderShare disables anonymous access to a folder.
func (s *Service) RevokeFolderShare(ctx context.Context, actor authz.Actor, id primitive.ObjectID) error {
	f, err := s.folders.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "folder %s", id.Hex())
	}
	if !actor.CanAccess(f.OwnerID) {
		return errKind(KindForbidden, "folder belongs to a different owner")
	}
	if err := s.folders.ClearShareToken(ctx, id); err != nil {
		return fmt.Errorf("clearing share token: %w", err)
	}
	s.logger.Info("folder share revoked", zap.String("folder_id", id.Hex()))
	return nil
}

// ShareTarget is what a share token points at: exactly one of File or
// Folder is set.
type ShareTarget struct {
	File   *models.File
	Folder *models.Folder
}

// Resolve maps a share token to its target without any ownership check; a
// valid token is the whole credential. Unknown or revoked tokens are
// NotFound, indistinguishable from never-issued ones.
func (s *Service) Resolve(ctx context.Context, token string) (*ShareTarget, error) {
	f, err := s.files.GetByShareToken(ctx, token)
	if err == nil {
		return &ShareTarget{File: f}, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("resolving share token: %w", err)
	}

	folder, err := s.folders.GetByShareToken(ctx, token)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errKind(KindNotFound, "share token not recognized")
		}
		return nil, fmt.Errorf("resolving share token: %w", err)
	}
	return &ShareTarget{Folder: folder}, nil
}

// OpenSharedFile streams a shared file's payload by token, recording the
// download like an owner access would.
func (s *Service) OpenSharedFile(ctx context.Context, token string) (io.ReadCloser, *models.File, error) {
	target, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if target.File == nil {
		return nil, nil, errKind(KindNotFound, "share token does not reference a file")
	}
	return s.openAndMark(ctx, target.File)
}

// ExportSharedFolder streams a zip archive of a shared folder's subtree by
// token.
func (s *Service) ExportSharedFolder(ctx context.Context, token string) (io.ReadCloser, string, error) {
	target, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, "", err
	}
	if target.Folder == nil {
		return nil, "", errKind(KindNotFound, "share token does not reference a folder")
	}
	return s.exportZip(ctx, target.Folder)
}
