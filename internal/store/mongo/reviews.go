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

const reviewsCollection = "reviews"

type reviewDoc struct {
	ID        string `bson:"_id"`
	MovieID   int    `bson:"movieId"`
	UserID    string `bson:"userId"`
	Username  string `bson:"username"`
	Rating    int    `bson:"rating"`
	Text      string `bson:"text"`
	CreatedAt int64  `bson:"createdAt"`
}

func reviewToDoc(review domain.Review) reviewDoc {
	return reviewDoc{
		ID:        review.ID,
		MovieID:   review.MovieID,
		UserID:    review.UserID,
		Username:  review.Username,
		Rating:    review.Rating,
		Text:      review.Text,
		CreatedAt: review.CreatedAt.UnixMilli(),
	}
}

func reviewFromDoc(doc reviewDoc) domain.Review {
	return domain.Review{
		ID:        doc.ID,
		MovieID:   doc.MovieID,
		UserID:    doc.UserID,
		Username:  doc.Username,
		Rating:    doc.Rating,
		Text:      doc.Text,
		CreatedAt: time.UnixMilli(doc.CreatedAt).UTC(),
	}
}

// ReviewRepository persists movie reviews. Reviews are insert-only: no
// updates, deletion restricted to the author.
type ReviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(client *mongo.Client, dbName string) *ReviewRepository {
	return &ReviewRepository{
		collection: client.Database(dbName).Collection(reviewsCollection),
	}
}

func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "movieId", Value: 1},
			{Key: "createdAt", Value: -1},
		},
	})
	return err
}

func (r *ReviewRepository) Add(ctx context.Context, review domain.Review) error {
	_, err := r.collection.InsertOne(ctx, reviewToDoc(review))
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// ListByMovie returns the movie's reviews newest first. Display ordering
// for a specific viewer is applied by the caller.
func (r *ReviewRepository) ListByMovie(ctx context.Context, movieID int) ([]domain.Review, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"movieId": movieID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []reviewDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	reviews := make([]domain.Review, len(docs))
	for i, doc := range docs {
		reviews[i] = reviewFromDoc(doc)
	}
	return reviews, nil
}

// Delete removes the review only when userID authored it. A review owned
// by someone else yields ErrForbidden, a missing review ErrNotFound.
func (r *ReviewRepository) Delete(ctx context.Context, reviewID, userID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": reviewID, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount > 0 {
		return nil
	}

	err = r.collection.FindOne(ctx, bson.M{"_id": reviewID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return domain.ErrForbidden
}
