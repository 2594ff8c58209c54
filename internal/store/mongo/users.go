package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"moviescout/internal/domain"
)

const usersCollection = "users"

type userDoc struct {
	ID           string   `bson:"_id"`
	Username     string   `bson:"username"`
	Email        string   `bson:"email"`
	PasswordHash string   `bson:"passwordHash"`
	Watchlist    []string `bson:"watchlist"`
	History      []string `bson:"history"`
	CreatedAt    int64    `bson:"createdAt"`
}

func userToDoc(profile domain.UserProfile, passwordHash string) userDoc {
	return userDoc{
		ID:           profile.ID,
		Username:     profile.Username,
		Email:        profile.Email,
		PasswordHash: passwordHash,
		Watchlist:    append([]string{}, profile.Watchlist...),
		History:      append([]string{}, profile.History...),
		CreatedAt:    profile.CreatedAt.UnixMilli(),
	}
}

func userFromDoc(doc userDoc) domain.UserProfile {
	return domain.UserProfile{
		ID:        doc.ID,
		Username:  doc.Username,
		Email:     doc.Email,
		Watchlist: doc.Watchlist,
		History:   doc.History,
		CreatedAt: time.UnixMilli(doc.CreatedAt).UTC(),
	}
}

// UserRepository persists user profiles, each carrying its watchlist set
// and watch-history list inline.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(client *mongo.Client, dbName string) *UserRepository {
	return &UserRepository{
		collection: client.Database(dbName).Collection(usersCollection),
	}
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *UserRepository) Create(ctx context.Context, profile domain.UserProfile, passwordHash string) error {
	_, err := r.collection.InsertOne(ctx, userToDoc(profile, passwordHash))
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *UserRepository) Get(ctx context.Context, userID string) (domain.UserProfile, error) {
	var doc userDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UserProfile{}, err
	}
	return userFromDoc(doc), nil
}

// GetByEmail returns the profile together with the stored password hash
// for credential verification.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.UserProfile, string, error) {
	var doc userDoc
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.UserProfile{}, "", domain.ErrNotFound
	}
	if err != nil {
		return domain.UserProfile{}, "", err
	}
	return userFromDoc(doc), doc.PasswordHash, nil
}

// ToggleWatchlist flips the movie's membership in the user's watchlist and
// reports the new state. The read and the update are separate operations;
// concurrent toggles follow last-write-wins.
func (r *UserRepository) ToggleWatchlist(ctx context.Context, userID, movieID string) (bool, error) {
	profile, err := r.Get(ctx, userID)
	if err != nil {
		return false, err
	}

	filter := bson.M{"_id": userID}
	if profile.InWatchlist(movieID) {
		_, err = r.collection.UpdateOne(ctx, filter, bson.M{"$pull": bson.M{"watchlist": movieID}})
		return false, err
	}
	_, err = r.collection.UpdateOne(ctx, filter, bson.M{"$addToSet": bson.M{"watchlist": movieID}})
	return true, err
}

// AppendHistory records one watch event. Repeat views append again; the
// history is a log, not a set.
func (r *UserRepository) AppendHistory(ctx context.Context, userID, movieID string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"history": movieID}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
