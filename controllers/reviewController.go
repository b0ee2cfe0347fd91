package controllers

import (
	"net/http"

	"go-food-ordering/services"

	"github.com/gin-gonic/gin"
)

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=500"`
}

func CreateReview(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reviewRequest
		if !bindAndValidate(c, &req) {
			return
		}
		review, restaurant, err := reviews.SubmitReview(c.Request.Context(), c.Param("orderId"), principal(c), req.Rating, req.Comment)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"review": review, "rating": restaurant.RatingStats()})
	}
}

func GetOrderReview(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		review, err := reviews.ReviewForOrder(c.Request.Context(), principal(c), c.Param("orderId"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, review)
	}
}

func GetRestaurantReviews(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := reviews.ListForRestaurant(c.Request.Context(), c.Param("id"), pageFromQuery(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
