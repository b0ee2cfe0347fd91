package helpers

import (
	"errors"
	"fmt"
	"time"

	"go-food-ordering/models"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SignedDetails struct {
	Uid          string `json:"uid"`
	Role         string `json:"role"`
	RestaurantId string `json:"rid,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// GenerateToken issues a session token carrying the user's role claim.
func (tm *TokenManager) GenerateToken(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claim := SignedDetails{
		Uid:  user.ID.Hex(),
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if user.RestaurantID != nil {
		claim.RestaurantId = user.RestaurantID.Hex()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claim).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, expiresAt, nil
}

// ValidateToken parses a signed token into a principal and its expiry.
func (tm *TokenManager) ValidateToken(signedToken string) (models.Principal, time.Time, error) {
	claims := &SignedDetails{}
	token, err := jwt.ParseWithClaims(signedToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Principal{}, time.Time{}, Unauthorized("session expired")
		}
		return models.Principal{}, time.Time{}, Unauthorized("invalid session")
	}
	if !token.Valid || claims.ExpiresAt == nil {
		return models.Principal{}, time.Time{}, Unauthorized("invalid session")
	}

	uid, err := primitive.ObjectIDFromHex(claims.Uid)
	if err != nil {
		return models.Principal{}, time.Time{}, Unauthorized("invalid session subject")
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		return models.Principal{}, time.Time{}, Unauthorized("invalid session role")
	}
	principal := models.Principal{UserID: uid, Role: role}
	if claims.RestaurantId != "" {
		rid, err := primitive.ObjectIDFromHex(claims.RestaurantId)
		if err != nil {
			return models.Principal{}, time.Time{}, Unauthorized("invalid session restaurant")
		}
		principal.RestaurantID = rid
	}
	return principal, claims.ExpiresAt.Time, nil
}
