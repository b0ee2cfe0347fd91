package helpers

import (
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	"go-food-ordering/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	rid := primitive.NewObjectID()
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin, RestaurantID: &rid}

	token, expiresAt, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	principal, exp, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, models.RoleAdmin, principal.Role)
	assert.Equal(t, rid, principal.RestaurantID)
	assert.WithinDuration(t, expiresAt, exp, time.Second)
}

func TestValidateToken_Rejects(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleCustomer}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other-secret", time.Hour)
		token, _, err := other.GenerateToken(user)
		require.NoError(t, err)
		_, _, err = tm.ValidateToken(token)
		assert.True(t, IsKind(err, KindUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenManager("test-secret", -time.Minute)
		token, _, err := expired.GenerateToken(user)
		require.NoError(t, err)
		_, _, err = tm.ValidateToken(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := tm.ValidateToken("not-a-token")
		assert.True(t, IsKind(err, KindUnauthorized))
	})
}

func TestPasswordHashing(t *testing.T) {
	PasswordCost = 4
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, VerifyPassword("secret123", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestPaymentSignature(t *testing.T) {
	sig := PaymentSignature("key_secret", "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.True(t, VerifyPaymentSignature("key_secret", "order_1", "pay_1", sig))
	assert.False(t, VerifyPaymentSignature("key_secret", "order_1", "pay_2", sig))
	assert.False(t, VerifyPaymentSignature("other", "order_1", "pay_1", sig))
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("submit review: %w", Conflict("already reviewed"))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, http.StatusConflict, KindOf(wrapped).HTTPStatus())
	assert.Equal(t, KindInternal, KindOf(fmt.Errorf("boom")))
	assert.Equal(t, http.StatusBadRequest, KindInvalidState.HTTPStatus())
	assert.Equal(t, "not_found", KindNotFound.String())
}

func TestPagination(t *testing.T) {
	p := NewPage(0, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.Equal(t, int64(0), p.Skip())

	p = NewPage(3, 10)
	assert.Equal(t, int64(20), p.Skip())

	res := NewPageResult[int](nil, 21, p)
	assert.Equal(t, int64(3), res.TotalPages)
	assert.NotNil(t, res.Items)
}

func TestPaginationClampsHugePage(t *testing.T) {
	p := NewPage(math.MaxInt, MaxPageSize)
	assert.Equal(t, MaxPage, p.Page)
	assert.Greater(t, p.Skip(), int64(0))
}
