package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Folder represents a folder in an owner's file tree.
//
// The parent chain is cycle-free: move operations reject any reparenting
// that would place a folder inside its own subtree. Sibling names are
// unique per (owner, parent) and the parent, when set, always belongs to
// the same owner.
type Folder struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"`
	OwnerID    primitive.ObjectID  `bson:"owner_id"`
	Name       string              `bson:"name"`
	NameCI     string              `bson:"name_ci"`             // Case-insensitive for sorting/search
	ParentID   *primitive.ObjectID `bson:"parent_id,omitempty"` // nil = root folder
	ShareToken *string             `bson:"share_token,omitempty"`
	CreatedAt  time.Time           `bson:"created_at"`
	UpdatedAt  time.Time           `bson:"updated_at"`
}

// IsRoot returns true if the folder is at the root level.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// IsShared returns true if the folder has an active share token.
func (f *Folder) IsShared() bool {
	return f.ShareToken != nil && *f.ShareToken != ""
}
