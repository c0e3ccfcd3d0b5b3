// Package userstore provides storage for owner accounts and their quotas.
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacloud/internal/app/store/storeutil"
	"github.com/dalemusser/stratacloud/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNegativeQuota is returned when a quota update carries a negative value.
var ErrNegativeQuota = errors.New("quota must not be negative")

// Store provides access to the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new user store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// CreateInput contains the input for creating an owner.
type CreateInput struct {
	FullName string
	Quota    int64 // Byte ceiling; new owners get the configured default
	Admin    bool
}

// Create inserts a new owner.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.User, error) {
	if input.Quota < 0 {
		return nil, ErrNegativeQuota
	}
	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   input.FullName,
		FullNameCI: text.Fold(input.FullName),
		Quota:      input.Quota,
		Admin:      input.Admin,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return nil, err
	}

	return &u, nil
}

// GetByID loads an owner by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns a page of owners sorted by folded full name. Limit and page
// fall back to storeutil defaults when non-positive.
func (s *Store) List(ctx context.Context, limit, page int64) ([]models.User, error) {
	findOpts := storeutil.Paginate(limit, page).SetSort(bson.D{{Key: "full_name_ci", Value: 1}})
	cursor, err := s.c.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetQuota replaces an owner's byte ceiling. Negative values are rejected
// with ErrNegativeQuota.
func (s *Store) SetQuota(ctx context.Context, id primitive.ObjectID, quota int64) error {
	if quota < 0 {
		return ErrNegativeQuota
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"quota":      quota,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an owner record. Callers purge the owner's tree first.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
