package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-food-ordering/helpers"
	"go-food-ordering/middleware"
	"go-food-ordering/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
)

var validate = validator.New()

// abort hands err to the error middleware, which writes the response.
func abort(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}

// bindAndValidate decodes the JSON body into req and runs its validate tags.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abort(c, helpers.Validation("invalid request body"))
		return false
	}
	if err := validate.Struct(req); err != nil {
		abort(c, helpers.Validation("%s", validationMessage(err)))
		return false
	}
	return true
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min", "max", "gt":
		return field + " must satisfy " + fe.Tag() + "=" + fe.Param()
	}
	return field + " is invalid"
}

func principal(c *gin.Context) models.Principal {
	p, _ := middleware.CurrentPrincipal(c)
	return p
}

func pageFromQuery(c *gin.Context) helpers.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(helpers.DefaultPageSize)))
	return helpers.NewPage(page, limit)
}

// SessionIssuer sets and clears the session cookie.
type SessionIssuer struct {
	Tokens *helpers.TokenManager
	Secure bool
}

func (s SessionIssuer) set(c *gin.Context, user *models.User) (string, error) {
	token, expiresAt, err := s.Tokens.GenerateToken(user)
	if err != nil {
		return "", helpers.Internal("could not create session", err)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(time.Until(expiresAt).Seconds()), "/", "", s.Secure, true)
	return token, nil
}

func (s SessionIssuer) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", s.Secure, true)
}
