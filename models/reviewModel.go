package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 500
)

type Review struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	RestaurantID primitive.ObjectID `bson:"restaurantId" json:"restaurantId"`
	OrderID      primitive.ObjectID `bson:"orderId" json:"orderId"`
	Rating       int                `bson:"rating" json:"rating"`
	Comment      string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// RatingStats is the aggregate carried on a restaurant.
type RatingStats struct {
	RestaurantID     string  `json:"restaurantId"`
	TotalRatingSum   float64 `json:"totalRatingSum"`
	TotalRatingCount int     `json:"totalRatingCount"`
	AverageRating    float64 `json:"averageRating"`
}

func (r *Restaurant) RatingStats() RatingStats {
	return RatingStats{
		RestaurantID:     r.ID.Hex(),
		TotalRatingSum:   r.TotalRatingSum,
		TotalRatingCount: r.TotalRatingCount,
		AverageRating:    r.AverageRating,
	}
}
