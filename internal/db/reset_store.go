package db

import (
	"context"
	"errors"
	"time"

	"github.com/blackwealthexchange/bwe-auth/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReserveResetSlot atomically claims the per-email reset window.
// A live slot makes the upsert collide on _id, which reads as "throttled".
func (s *MongoStore) ReserveResetSlot(ctx context.Context, email string, now time.Time, window time.Duration) (bool, error) {
	_, err := s.database.Collection(throttleCollection).UpdateOne(ctx,
		bson.M{"_id": email, "locked_until": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"locked_until": now.Add(window)}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseResetSlot frees the throttle slot for email.
func (s *MongoStore) ReleaseResetSlot(ctx context.Context, email string) error {
	_, err := s.database.Collection(throttleCollection).DeleteOne(ctx, bson.M{"_id": email})
	return err
}

// CreateResetRequest inserts req and sets its ID.
func (s *MongoStore) CreateResetRequest(ctx context.Context, req *models.PasswordResetRequest) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}

	_, err := s.database.Collection(resetCollection).InsertOne(ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// FindActiveResetRequest returns the unused, unexpired request with tokenHash.
func (s *MongoStore) FindActiveResetRequest(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordResetRequest, error) {
	var req models.PasswordResetRequest
	err := s.database.Collection(resetCollection).FindOne(ctx, bson.M{
		"token_hash": tokenHash,
		"used_at":    nil,
		"expires_at": bson.M{"$gt": now},
	}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ConsumeResetRequest marks the request used. Only one caller can win.
func (s *MongoStore) ConsumeResetRequest(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	res, err := s.database.Collection(resetCollection).UpdateOne(ctx,
		bson.M{"_id": id, "used_at": nil},
		bson.M{"$set": bson.M{"used_at": now}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseResetRequest undoes a ConsumeResetRequest made at usedAt. A request consumed at
// any other time is left alone.
func (s *MongoStore) ReleaseResetRequest(ctx context.Context, id primitive.ObjectID, usedAt time.Time) error {
	_, err := s.database.Collection(resetCollection).UpdateOne(ctx,
		bson.M{"_id": id, "used_at": usedAt},
		bson.M{"$set": bson.M{"used_at": nil}},
	)
	return err
}
