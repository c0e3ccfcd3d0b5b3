package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// File represents a file in an owner's tree.
//
// Size is authoritative: it is set from the byte count actually persisted
// to the blob store, never from a client-declared length. The folder, when
// set, always belongs to the same owner as the file.
type File struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty"`
	OwnerID          primitive.ObjectID  `bson:"owner_id"`
	FolderID         *primitive.ObjectID `bson:"folder_id,omitempty"` // nil = root level
	Name             string              `bson:"name"`                // Original display name
	NameCI           string              `bson:"name_ci"`             // Case-insensitive for sorting/search
	StoragePath      string              `bson:"storage_path"`        // Locator in the blob store
	Size             int64               `bson:"size"`                // Persisted payload size in bytes
	ContentType      string              `bson:"content_type"`
	Comment          string              `bson:"comment,omitempty"`
	ShareToken       *string             `bson:"share_token,omitempty"`
	UploadedAt       time.Time           `bson:"uploaded_at"`
	LastDownloadedAt *time.Time          `bson:"last_downloaded_at,omitempty"`
	DownloadCount    int64               `bson:"download_count"`
}

// IsInRoot returns true if the file is at the root level (not in any folder).
func (f *File) IsInRoot() bool {
	return f.FolderID == nil
}

// IsShared returns true if the file has an active share token.
func (f *File) IsShared() bool {
	return f.ShareToken != nil && *f.ShareToken != ""
}
