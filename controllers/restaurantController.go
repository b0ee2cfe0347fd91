package controllers

import (
	"net/http"
	"strconv"

	"go-food-ordering/models"
	"go-food-ordering/repository"
	"go-food-ordering/services"

	"github.com/gin-gonic/gin"
)

type restaurantProfileRequest struct {
	Name         *string              `json:"name"`
	Description  *string              `json:"description"`
	Cuisine      *string              `json:"cuisine"`
	Phone        *string              `json:"phone"`
	ImageURL     *string              `json:"imageUrl"`
	Address      *models.Address      `json:"address"`
	OpeningHours *models.OpeningHours `json:"openingHours"`
}

type openRequest struct {
	IsOpen *bool `json:"isOpen" validate:"required"`
}

type restaurantStatusRequest struct {
	Status models.RestaurantStatus `json:"status" validate:"required"`
}

func GetRestaurants(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		openOnly, _ := strconv.ParseBool(c.Query("open"))
		result, err := restaurants.ListPublic(c.Request.Context(), c.Query("city"), c.Query("cuisine"), openOnly, pageFromQuery(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func GetRestaurant(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurant, err := restaurants.PublicDetail(c.Request.Context(), c.Param("id"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, restaurant)
	}
}

func GetOwnRestaurant(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurant, err := restaurants.OwnRestaurant(c.Request.Context(), principal(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, restaurant)
	}
}

func UpdateOwnRestaurant(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req restaurantProfileRequest
		if !bindAndValidate(c, &req) {
			return
		}
		restaurant, err := restaurants.UpdateProfile(c.Request.Context(), principal(c), repository.RestaurantProfile{
			Name:         req.Name,
			Description:  req.Description,
			Cuisine:      req.Cuisine,
			Phone:        req.Phone,
			ImageURL:     req.ImageURL,
			Address:      req.Address,
			OpeningHours: req.OpeningHours,
		})
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, restaurant)
	}
}

func SetRestaurantOpen(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req openRequest
		if !bindAndValidate(c, &req) {
			return
		}
		restaurant, err := restaurants.SetOpen(c.Request.Context(), principal(c), *req.IsOpen)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, restaurant)
	}
}

func SubmitRestaurant(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurant, err := restaurants.SubmitForApproval(c.Request.Context(), principal(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, restaurant)
	}
}

func ListRestaurantsByStatus(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := restaurants.ListByStatus(c.Request.Context(), c.Query("status"), pageFromQuery(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func UpdateRestaurantStatus(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req restaurantStatusRequest
		if !bindAndValidate(c, &req) {
			return
		}
		restaurant, err := restaurants.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, restaurant)
	}
}

func GetStats(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := restaurants.Stats(c.Request.Context())
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
