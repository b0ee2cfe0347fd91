package services

import (
	"context"
	"time"

	"go-food-ordering/helpers"
	"go-food-ordering/models"
	"go-food-ordering/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier receives post-commit events. Implementations must not block and
// never report delivery failures back to the caller.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

type RestaurantStore interface {
	Create(ctx context.Context, restaurant *models.Restaurant) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error)
	List(ctx context.Context, f repository.RestaurantFilter, page helpers.Page) ([]models.Restaurant, int64, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p repository.RestaurantProfile) (*models.Restaurant, error)
	SetOpen(ctx context.Context, id primitive.ObjectID, open bool) (*models.Restaurant, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.RestaurantStatus, from ...models.RestaurantStatus) (*models.Restaurant, error)
	AddMenuItems(ctx context.Context, id primitive.ObjectID, items ...models.MenuItem) (*models.Restaurant, error)
	UpdateMenuItem(ctx context.Context, id primitive.ObjectID, item models.MenuItem) (*models.Restaurant, error)
	RemoveMenuItem(ctx context.Context, id, itemID primitive.ObjectID) (*models.Restaurant, error)
	CountByStatus(ctx context.Context) (map[models.RestaurantStatus]int64, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, guard repository.StatusGuard, change models.StatusChange) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, page helpers.Page) ([]models.Order, int64, error)
	ListByRestaurant(ctx context.Context, restaurantID primitive.ObjectID, status models.OrderStatus, page helpers.Page) ([]models.Order, int64, error)
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
}

type ReviewStore interface {
	CreateWithRating(ctx context.Context, review *models.Review) (*models.Restaurant, error)
	FindByOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Review, error)
	ListByRestaurant(ctx context.Context, restaurantID primitive.ObjectID, page helpers.Page) ([]models.Review, int64, error)
}

var now = func() time.Time { return time.Now().UTC() }

func parseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, helpers.Validation("invalid %s id", what)
	}
	return id, nil
}

// requireRestaurant returns the restaurant an admin principal manages.
func requireRestaurant(p models.Principal) (primitive.ObjectID, error) {
	if p.Role != models.RoleAdmin || !p.HasRestaurant() {
		return primitive.NilObjectID, helpers.Forbidden("restaurant admin access required")
	}
	return p.RestaurantID, nil
}
