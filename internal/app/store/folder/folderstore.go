// Package folder provides storage for folders in an owner's file tree.
package folder

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/stratacloud/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxTreeNodes bounds subtree and ancestor walks. The move operation keeps
// the tree cycle-free, so these walks always terminate; the bound is a
// safety net against a corrupted parent chain, not a depth policy.
const maxTreeNodes = 1 << 20

// Store provides access to the folders collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new folder store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("folders"),
	}
}

// CreateInput contains the input for creating a folder.
type CreateInput struct {
	OwnerID  primitive.ObjectID
	Name     string
	ParentID *primitive.ObjectID
}

// Create creates a new folder.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.Folder, error) {
	now := time.Now().UTC()
	folder := models.Folder{
		ID:        primitive.NewObjectID(),
		OwnerID:   input.OwnerID,
		Name:      input.Name,
		NameCI:    text.Fold(input.Name),
		ParentID:  input.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, folder); err != nil {
		return nil, err
	}

	return &folder, nil
}

// GetByID retrieves a folder by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Folder, error) {
	var folder models.Folder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// GetByShareToken retrieves a folder by its share token.
func (s *Store) GetByShareToken(ctx context.Context, token string) (*models.Folder, error) {
	var folder models.Folder
	if err := s.c.FindOne(ctx, bson.M{"share_token": token}).Decode(&folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// Rename updates a folder's name.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// SetParent reparents a folder. Pass nil to move it to the root level.
// The caller is responsible for cycle and sibling-name checks.
func (s *Store) SetParent(ctx context.Context, id primitive.ObjectID, parentID *primitive.ObjectID) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if parentID != nil {
		set["parent_id"] = *parentID
	} else {
		update["$unset"] = bson.M{"parent_id": ""}
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// SetShareToken stores a share token on a folder.
func (s *Store) SetShareToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"share_token": token,
		"updated_at":  time.Now().UTC(),
	}})
	return err
}

// ClearShareToken removes a folder's share token. The token value is not
// reused; a later share issues a fresh token.
func (s *Store) ClearShareToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"share_token": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// Delete deletes a single folder record.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByIDs deletes all folder records whose ID is in ids.
func (s *Store) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

// ListByParent returns an owner's folders within a parent folder, sorted by
// folded name. Pass nil for parentID to list root folders.
func (s *Store) ListByParent(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID) ([]models.Folder, error) {
	filter := bson.M{"owner_id": ownerID, "parent_id": parentID}

	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, err
	}

	return folders, nil
}

// ListByOwner returns every folder owned by ownerID.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Folder, error) {
	cursor, err := s.c.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var folders []models.Folder
	if err := cursor.All(ctx, &folders); err != nil {
		return nil, err
	}

	return folders, nil
}

// NameExistsInParent checks if an owner already has a folder with the given
// name under the parent. Pass excludeID to exclude a specific folder
// (useful for renames and moves).
func (s *Store) NameExistsInParent(ctx context.Context, ownerID primitive.ObjectID, name string, parentID *primitive.ObjectID, excludeID *primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"owner_id":  ownerID,
		"parent_id": parentID,
		"name_ci":   text.Fold(name),
	}

	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	count, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// IsDescendant reports whether candidate lies inside root's subtree,
// including candidate == root. It walks candidate's ancestor chain toward
// the root level, so the cost is bounded by the tree depth.
func (s *Store) IsDescendant(ctx context.Context, candidateID, rootID primitive.ObjectID) (bool, error) {
	current := &candidateID
	for steps := 0; current != nil; steps++ {
		if steps >= maxTreeNodes {
			return false, fmt.Errorf("ancestor chain of %s exceeds %d nodes", candidateID.Hex(), maxTreeNodes)
		}
		if *current == rootID {
			return true, nil
		}
		f, err := s.GetByID(ctx, *current)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				// Broken chain: treat as not a descendant.
				return false, nil
			}
			return false, err
		}
		current = f.ParentID
	}
	return false, nil
}

// SubtreeIDs collects rootID and the ID of every descendant folder using an
// explicit worklist. Every cascading operation (purge, zip export) starts
// from this set.
func (s *Store) SubtreeIDs(ctx context.Context, ownerID, rootID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids := []primitive.ObjectID{rootID}
	queue := []primitive.ObjectID{rootID}

	for len(queue) > 0 {
		if len(ids) > maxTreeNodes {
			return nil, fmt.Errorf("subtree of %s exceeds %d folders", rootID.Hex(), maxTreeNodes)
		}
		current := queue[0]
		queue = queue[1:]

		children, err := s.ListByParent(ctx, ownerID, &current)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			ids = append(ids, child.ID)
			queue = append(queue, child.ID)
		}
	}

	return ids, nil
}

// GetAncestors returns all ancestors of a folder, ordered from root to
// immediate parent.
func (s *Store) GetAncestors(ctx context.Context, id primitive.ObjectID) ([]models.Folder, error) {
	folder, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var ancestors []models.Folder

	currentParentID := folder.ParentID
	for steps := 0; currentParentID != nil; steps++ {
		if steps >= maxTreeNodes {
			return nil, fmt.Errorf("ancestor chain of %s exceeds %d nodes", id.Hex(), maxTreeNodes)
		}
		parent, err := s.GetByID(ctx, *currentParentID)
		if err != nil {
			return nil, err
		}
		// Prepend to get root-first order
		ancestors = append([]models.Folder{*parent}, ancestors...)
		currentParentID = parent.ParentID
	}

	return ancestors, nil
}
