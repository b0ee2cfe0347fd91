package repository

import (
	"context"
	"fmt"
	"time"

	"go-food-ordering/helpers"
	"go-food-ordering/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewRepository struct {
	reviews      *mongo.Collection
	restaurants  *mongo.Collection
	transactions bool
}

// NewReviewRepository needs both collections because a review insert and the
// restaurant rating update are one logical write. With transactions enabled
// they commit together; without, a failed rating update deletes the review.
func NewReviewRepository(reviews, restaurants *mongo.Collection, transactions bool) *ReviewRepository {
	return &ReviewRepository{reviews: reviews, restaurants: restaurants, transactions: transactions}
}

// CreateWithRating inserts review and folds its rating into the restaurant's
// running sum, count and average. It returns the updated restaurant.
func (r *ReviewRepository) CreateWithRating(ctx context.Context, review *models.Review) (*models.Restaurant, error) {
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	if !r.transactions {
		return r.createCompensated(ctx, review)
	}

	session, err := r.reviews.Database().Client().StartSession()
	if err != nil {
		return nil, helpers.Internal("failed to start session", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := r.insert(sc, review); err != nil {
			return nil, err
		}
		return r.applyRating(sc, review.RestaurantID, review.Rating)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Restaurant), nil
}

func (r *ReviewRepository) createCompensated(ctx context.Context, review *models.Review) (*models.Restaurant, error) {
	if err := r.insert(ctx, review); err != nil {
		return nil, err
	}
	restaurant, err := r.applyRating(ctx, review.RestaurantID, review.Rating)
	if err != nil {
		if _, delErr := r.reviews.DeleteOne(ctx, bson.M{"_id": review.ID}); delErr != nil {
			return nil, helpers.Internal("rating update failed and review rollback failed",
				fmt.Errorf("%v; rollback: %w", err, delErr))
		}
		return nil, err
	}
	return restaurant, nil
}

func (r *ReviewRepository) insert(ctx context.Context, review *models.Review) error {
	if _, err := r.reviews.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return helpers.Conflict("order has already been reviewed")
		}
		return helpers.Internal("failed to create review", err)
	}
	return nil
}

// ratingUpdate recomputes the average from the new sum and count inside the
// same document update, so readers never see them disagree.
func ratingUpdate(rating int, now time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "totalRatingSum", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$totalRatingSum", 0}}}, rating,
			}}}},
			{Key: "totalRatingCount", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$totalRatingCount", 0}}}, 1,
			}}}},
			{Key: "updatedAt", Value: now},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "averageRating", Value: bson.D{{Key: "$divide", Value: bson.A{"$totalRatingSum", "$totalRatingCount"}}}},
		}}},
	}
}

func (r *ReviewRepository) applyRating(ctx context.Context, restaurantID primitive.ObjectID, rating int) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.restaurants.FindOneAndUpdate(ctx, bson.M{"_id": restaurantID}, ratingUpdate(rating, time.Now().UTC()), returnAfter()).
		Decode(&restaurant)
	if err != nil {
		return nil, notFoundOr(err, "restaurant")
	}
	return &restaurant, nil
}

func (r *ReviewRepository) FindByOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	if err := r.reviews.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&review); err != nil {
		return nil, notFoundOr(err, "review")
	}
	return &review, nil
}

func (r *ReviewRepository) ListByRestaurant(ctx context.Context, restaurantID primitive.ObjectID, page helpers.Page) ([]models.Review, int64, error) {
	filter := bson.D{{Key: "restaurantId", Value: restaurantID}}
	total, err := r.reviews.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, helpers.Internal("failed to count reviews", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := r.reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, helpers.Internal("failed to list reviews", err)
	}
	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, helpers.Internal("failed to decode reviews", err)
	}
	return reviews, total, nil
}
