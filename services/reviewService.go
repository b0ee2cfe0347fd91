package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"go-food-ordering/helpers"
	"go-food-ordering/logger"
	"go-food-ordering/models"
)

type ReviewService struct {
	reviews  ReviewStore
	orders   OrderStore
	notifier Notifier
	log      *logger.Logger
}

func NewReviewService(reviews ReviewStore, orders OrderStore, notifier Notifier, log *logger.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, orders: orders, notifier: notifier, log: log}
}

// SubmitReview records the customer's rating for a delivered order and folds
// it into the restaurant's running average. One review per order.
func (s *ReviewService) SubmitReview(ctx context.Context, orderID string, customer models.Principal, rating int, comment string) (*models.Review, *models.Restaurant, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, nil, helpers.Validation("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > models.MaxCommentLength {
		return nil, nil, helpers.Validation("comment must be at most %d characters", models.MaxCommentLength)
	}

	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if order.UserID != customer.UserID {
		return nil, nil, helpers.Forbidden("order does not belong to you")
	}
	if order.Status != models.StatusDelivered {
		return nil, nil, helpers.InvalidState("only delivered orders can be reviewed")
	}

	review := &models.Review{
		UserID:       customer.UserID,
		RestaurantID: order.RestaurantID,
		OrderID:      order.ID,
		Rating:       rating,
		Comment:      comment,
		CreatedAt:    now(),
	}
	restaurant, err := s.reviews.CreateWithRating(ctx, review)
	if err != nil {
		return nil, nil, err
	}

	stats := restaurant.RatingStats()
	s.log.Info(logger.RequestID(ctx), "review_created", "Review recorded", map[string]interface{}{
		"order_id":       order.ID.Hex(),
		"restaurant_id":  stats.RestaurantID,
		"rating":         rating,
		"average_rating": stats.AverageRating,
	})
	s.notifier.Notify(ctx, models.Notification{
		Room:    models.BroadcastRoom,
		Event:   models.EventRestaurantRatingUpdated,
		Payload: stats,
	})
	return review, restaurant, nil
}

// ReviewForOrder returns the caller's review of their order, or NotFound.
func (s *ReviewService) ReviewForOrder(ctx context.Context, customer models.Principal, orderID string) (*models.Review, error) {
	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != customer.UserID {
		return nil, helpers.Forbidden("order does not belong to you")
	}
	return s.reviews.FindByOrder(ctx, id)
}

func (s *ReviewService) ListForRestaurant(ctx context.Context, restaurantID string, page helpers.Page) (helpers.PageResult[models.Review], error) {
	rid, err := parseID(restaurantID, "restaurant")
	if err != nil {
		return helpers.PageResult[models.Review]{}, err
	}
	reviews, total, err := s.reviews.ListByRestaurant(ctx, rid, page)
	if err != nil {
		return helpers.PageResult[models.Review]{}, err
	}
	return helpers.NewPageResult(reviews, total, page), nil
}
