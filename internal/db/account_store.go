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

// MongoStore implements account and reset storage on top of a Mongo database handle.
type MongoStore struct {
	database *mongo.Database
}

// NewMongoStore creates a store backed by database.
func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{database: database}
}

func (s *MongoStore) accounts(t models.AccountType) *mongo.Collection {
	return s.database.Collection(t.Collection())
}

// CreateAccount inserts account into its type's collection. Duplicate emails return ErrDuplicate.
func (s *MongoStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID.IsZero() {
		account.ID = primitive.NewObjectID()
	}

	_, err := s.accounts(account.AccountType).InsertOne(ctx, account)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// FindAccountByEmail looks up an account by normalized email.
func (s *MongoStore) FindAccountByEmail(ctx context.Context, t models.AccountType, email string) (*models.Account, error) {
	var account models.Account
	err := s.accounts(t).FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindAccountByID looks up an account by hex ObjectID.
func (s *MongoStore) FindAccountByID(ctx context.Context, t models.AccountType, id string) (*models.Account, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var account models.Account
	err = s.accounts(t).FindOne(ctx, bson.M{"_id": objID}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdatePassword reports whether a document matched; zero matches is not an error.
func (s *MongoStore) UpdatePassword(ctx context.Context, t models.AccountType, id primitive.ObjectID, hash string, now time.Time) (bool, error) {
	res, err := s.accounts(t).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hash, "updated_at": now}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// SetProfileImage stores key on the account and returns the key it replaced.
func (s *MongoStore) SetProfileImage(ctx context.Context, t models.AccountType, id primitive.ObjectID, key string, now time.Time) (string, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"profile_image_key": 1})

	var previous models.Account
	err := s.accounts(t).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"profile_image_key": key, "updated_at": now}},
		opts,
	).Decode(&previous)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return previous.ProfileImageKey, nil
}
