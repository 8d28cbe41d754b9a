package store

import (
	"context"
	"errors"

	"github.com/userhub/apiserver/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	mongoUsersCollection   = "users"
	mongoAvatarsCollection = "avatars"
)

// MongoUserRepository persists users in a MongoDB collection.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(mongoUsersCollection)}
}

func (r *MongoUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// MongoAvatarRepository persists avatar cache entries in a MongoDB collection.
type MongoAvatarRepository struct {
	coll *mongo.Collection
}

func NewMongoAvatarRepository(db *mongo.Database) *MongoAvatarRepository {
	return &MongoAvatarRepository{coll: db.Collection(mongoAvatarsCollection)}
}

// EnsureIndexes creates the unique userId index backing one entry per user
// and the hash index used for reference counting.
func (r *MongoAvatarRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "hash", Value: 1}}},
	})
	return err
}

func (r *MongoAvatarRepository) FindByUserID(ctx context.Context, userID int) (types.AvatarEntry, error) {
	var entry types.AvatarEntry
	err := r.coll.FindOne(ctx, bson.D{{Key: "userId", Value: userID}}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.AvatarEntry{}, ErrNotFound
		}
		return types.AvatarEntry{}, err
	}
	return entry, nil
}

func (r *MongoAvatarRepository) Create(ctx context.Context, entry types.AvatarEntry) error {
	_, err := r.coll.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *MongoAvatarRepository) FindAndDelete(ctx context.Context, userID int) (types.AvatarEntry, error) {
	var entry types.AvatarEntry
	err := r.coll.FindOneAndDelete(ctx, bson.D{{Key: "userId", Value: userID}}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.AvatarEntry{}, ErrNotFound
		}
		return types.AvatarEntry{}, err
	}
	return entry, nil
}

func (r *MongoAvatarRepository) CountByHash(ctx context.Context, hash string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{{Key: "hash", Value: hash}})
}
