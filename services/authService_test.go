package services

import (
	"context"
	"testing"

	"go-food-ordering/helpers"
	"go-food-ordering/logger"
	"go-food-ordering/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *testEnv) authService() *AuthService {
	return NewAuthService(env.users, env.restaurants, logger.Nop())
}

func TestRegisterCustomerAndLogin(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.authService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Name: "Asha", Email: " Asha@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.Nil(t, user.RestaurantID)

	loggedIn, err := svc.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, err = svc.Login(ctx, "asha@example.com", "wrong")
	assert.True(t, helpers.IsKind(err, helpers.KindUnauthorized))
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, helpers.IsKind(err, helpers.KindUnauthorized))

	_, err = svc.Register(ctx, RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "secret1"})
	assert.True(t, helpers.IsKind(err, helpers.KindConflict))
}

func TestRegisterAdminSeedsRestaurant(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user, err := env.authService().Register(ctx, RegisterRequest{
		Name: "Ravi", Email: "ravi@example.com", Password: "secret1", Role: models.RoleAdmin,
		Restaurant: &RestaurantSignup{Name: "Ravi's Kitchen", Address: models.Address{Street: "1 Main", City: "Pune"}},
	})
	require.NoError(t, err)
	require.NotNil(t, user.RestaurantID)

	restaurant, err := env.restaurants.FindByID(ctx, *user.RestaurantID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, restaurant.OwnerID)
	assert.Equal(t, models.RestaurantPending, restaurant.Status)
	assert.Equal(t, float64(models.InitialRatingSum), restaurant.TotalRatingSum)
	assert.Equal(t, models.InitialRatingCount, restaurant.TotalRatingCount)
	assert.Equal(t, 4.0, restaurant.AverageRating)
	assert.NotNil(t, restaurant.Menu)
}

func TestRegisterValidation(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.authService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "X", Email: "x@example.com", Password: "secret1", Role: models.RoleSuperAdmin})
	assert.True(t, helpers.IsKind(err, helpers.KindValidation))

	_, err = svc.Register(ctx, RegisterRequest{Name: "X", Email: "x@example.com", Password: "123"})
	assert.True(t, helpers.IsKind(err, helpers.KindValidation))

	_, err = svc.Register(ctx, RegisterRequest{Name: "X", Email: "x@example.com", Password: "secret1", Role: models.RoleAdmin})
	assert.True(t, helpers.IsKind(err, helpers.KindValidation))
}

func TestChangePassword(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.authService()
	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterRequest{Name: "Meera", Email: "meera@example.com", Password: "secret1"})
	require.NoError(t, err)
	p := models.Principal{UserID: user.ID, Role: user.Role}

	err = svc.ChangePassword(ctx, p, "wrong", "newsecret")
	assert.True(t, helpers.IsKind(err, helpers.KindUnauthorized))

	require.NoError(t, svc.ChangePassword(ctx, p, "secret1", "newsecret"))
	_, err = svc.Login(ctx, "meera@example.com", "newsecret")
	assert.NoError(t, err)
}

func TestEnsureSuperAdminIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.authService()
	ctx := context.Background()

	require.NoError(t, svc.EnsureSuperAdmin(ctx, "root@example.com", "rootpass"))
	require.NoError(t, svc.EnsureSuperAdmin(ctx, "root@example.com", "rootpass"))
	n, err := env.users.CountByRole(ctx, models.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, svc.EnsureSuperAdmin(ctx, "", ""))
}
