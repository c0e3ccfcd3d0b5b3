package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a storage owner: the account that holds the quota and ultimate
// access rights over a tree of folders and files.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	FullName   string             `bson:"full_name"`
	FullNameCI string             `bson:"full_name_ci"` // Case-insensitive for sorting/search
	Quota      int64              `bson:"quota"`        // Byte ceiling for this owner's files
	Admin      bool               `bson:"admin"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}
