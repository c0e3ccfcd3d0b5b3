// Package file provides storage for file metadata.
package file

import (
	"context"
	"time"

	"github.com/dalemusser/stratacloud/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the files collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new file store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection("files"),
	}
}

// CreateInput contains the input for creating a file record.
type CreateInput struct {
	OwnerID     primitive.ObjectID
	FolderID    *primitive.ObjectID
	Name        string
	StoragePath string
	Size        int64
	ContentType string
	Comment     string
}

// Create creates a new file record.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.File, error) {
	file := models.File{
		ID:          primitive.NewObjectID(),
		OwnerID:     input.OwnerID,
		FolderID:    input.FolderID,
		Name:        input.Name,
		NameCI:      text.Fold(input.Name),
		StoragePath: input.StoragePath,
		Size:        input.Size,
		ContentType: input.ContentType,
		Comment:     input.Comment,
		UploadedAt:  time.Now().UTC(),
	}

	if _, err := s.c.InsertOne(ctx, file); err != nil {
		return nil, err
	}

	return &file, nil
}

// GetByID retrieves a file by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.File, error) {
	var file models.File
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

// GetByShareToken retrieves a file by its share token.
func (s *Store) GetByShareToken(ctx context.Context, token string) (*models.File, error) {
	var file models.File
	if err := s.c.FindOne(ctx, bson.M{"share_token": token}).Decode(&file); err != nil {
		return nil, err
	}
	return &file, nil
}

// Rename updates a file's display name. Display names carry no sibling
// uniqueness constraint; extension handling is the caller's concern.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":    name,
		"name_ci": text.Fold(name),
	}})
	return err
}

// SetFolder moves a file into a folder. Pass nil to move it to the root level.
func (s *Store) SetFolder(ctx context.Context, id primitive.ObjectID, folderID *primitive.ObjectID) error {
	if folderID != nil {
		_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"folder_id": *folderID}})
		return err
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{"folder_id": ""}})
	return err
}

// SetComment replaces a file's comment.
func (s *Store) SetComment(ctx context.Context, id primitive.ObjectID, comment string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"comment": comment}})
	return err
}

// SetShareToken stores a share token on a file.
func (s *Store) SetShareToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"share_token": token}})
	return err
}

// ClearShareToken removes a file's share token.
func (s *Store) ClearShareToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{"share_token": ""}})
	return err
}

// MarkDownloaded records a completed download: bumps the download counter
// and stamps last_downloaded_at.
func (s *Store) MarkDownloaded(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"download_count": 1},
		"$set": bson.M{"last_downloaded_at": time.Now().UTC()},
	})
	return err
}

// Delete deletes a file record.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByFolder returns an owner's files within a folder, sorted by folded
// name. Pass nil for folderID to list root-level files.
func (s *Store) ListByFolder(ctx context.Context, ownerID primitive.ObjectID, folderID *primitive.ObjectID) ([]models.File, error) {
	filter := bson.M{"owner_id": ownerID, "folder_id": folderID}

	findOpts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}

	return files, nil
}

// ListByFolderIDs returns every file of an owner whose folder is in
// folderIDs. Used by cascading operations over a collected subtree.
func (s *Store) ListByFolderIDs(ctx context.Context, ownerID primitive.ObjectID, folderIDs []primitive.ObjectID) ([]models.File, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"owner_id":  ownerID,
		"folder_id": bson.M{"$in": folderIDs},
	}

	cursor, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}

	return files, nil
}

// ListByOwner returns every file owned by ownerID.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.File, error) {
	cursor, err := s.c.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var files []models.File
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}

	return files, nil
}

// UsedBytes returns the sum of sizes of every file owned by ownerID.
//
// Usage is always derived from the file records, never tracked in a
// separate counter, so it cannot drift after a partial failure.
func (s *Store) UsedBytes(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"owner_id": ownerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$size"},
		}}},
	}

	cursor, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
