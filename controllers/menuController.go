package controllers

import (
	"net/http"
	"path/filepath"
	"strings"

	"go-food-ordering/helpers"
	"go-food-ordering/services"

	"github.com/gin-gonic/gin"
)

const maxImportSize = 5 << 20

func CreateMenuItem(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.MenuItemInput
		if !bindAndValidate(c, &req) {
			return
		}
		restaurant, err := restaurants.AddMenuItem(c.Request.Context(), principal(c), req)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusCreated, restaurant.Menu)
	}
}

func UpdateMenuItem(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.MenuItemInput
		if !bindAndValidate(c, &req) {
			return
		}
		restaurant, err := restaurants.UpdateMenuItem(c.Request.Context(), principal(c), c.Param("itemId"), req)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, restaurant.Menu)
	}
}

func DeleteMenuItem(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurant, err := restaurants.RemoveMenuItem(c.Request.Context(), principal(c), c.Param("itemId"))
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, restaurant.Menu)
	}
}

// ImportMenu accepts a multipart "file" field holding an .xlsx workbook.
func ImportMenu(restaurants *services.RestaurantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			abort(c, helpers.Validation("Excel file is required"))
			return
		}
		if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".xlsx") {
			abort(c, helpers.Validation("only .xlsx files are supported"))
			return
		}
		if fileHeader.Size > maxImportSize {
			abort(c, helpers.Validation("file exceeds %d MB", maxImportSize>>20))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			abort(c, helpers.Internal("unable to open Excel file", err))
			return
		}
		defer file.Close()

		result, err := restaurants.ImportMenu(c.Request.Context(), principal(c), file)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
