package services

import (
	"context"
	"strings"
	"time"

	"go-food-ordering/helpers"
	"go-food-ordering/logger"
	"go-food-ordering/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RestaurantSignup struct {
	Name        string         `json:"name" validate:"required"`
	Description string         `json:"description"`
	Cuisine     string         `json:"cuisine"`
	Phone       string         `json:"phone"`
	Address     models.Address `json:"address"`
}

type RegisterRequest struct {
	Name       string            `json:"name" validate:"required,min=2,max=100"`
	Email      string            `json:"email" validate:"required,email"`
	Password   string            `json:"password" validate:"required,min=6"`
	Phone      string            `json:"phone"`
	Role       models.Role       `json:"role"`
	Restaurant *RestaurantSignup `json:"restaurant"`
}

type AuthService struct {
	users       UserStore
	restaurants RestaurantStore
	log         *logger.Logger
}

func NewAuthService(users UserStore, restaurants RestaurantStore, log *logger.Logger) *AuthService {
	return &AuthService{users: users, restaurants: restaurants, log: log}
}

// Register creates a customer, or an admin together with their restaurant in
// pending status. The restaurant is removed again if the user insert fails.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = models.RoleCustomer
	}
	if req.Role != models.RoleCustomer && req.Role != models.RoleAdmin {
		return nil, helpers.Validation("role must be customer or admin")
	}
	if len(req.Password) < helpers.MinPasswordLength {
		return nil, helpers.Validation("password must be at least %d characters", helpers.MinPasswordLength)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Name) == "" {
		return nil, helpers.Validation("name and email are required")
	}

	hash, err := helpers.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	ts := now()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	if req.Role == models.RoleAdmin {
		if req.Restaurant == nil || strings.TrimSpace(req.Restaurant.Name) == "" {
			return nil, helpers.Validation("restaurant details are required for admin registration")
		}
		if _, err := s.users.FindByEmail(ctx, email); err == nil {
			return nil, helpers.Conflict("email already registered")
		} else if !helpers.IsKind(err, helpers.KindNotFound) {
			return nil, err
		}

		restaurant := newRestaurant(user.ID, req.Restaurant, ts)
		if err := s.restaurants.Create(ctx, restaurant); err != nil {
			return nil, err
		}
		user.RestaurantID = &restaurant.ID
		if err := s.users.Create(ctx, user); err != nil {
			if delErr := s.restaurants.Delete(ctx, restaurant.ID); delErr != nil {
				s.log.Error(logger.RequestID(ctx), "register_rollback_failed", "Could not remove restaurant after failed signup", delErr,
					map[string]interface{}{"restaurant_id": restaurant.ID.Hex()})
			}
			return nil, err
		}
		s.log.Info(logger.RequestID(ctx), "admin_registered", "Restaurant admin registered", map[string]interface{}{
			"user_id": user.ID.Hex(), "restaurant_id": restaurant.ID.Hex(),
		})
		return user, nil
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info(logger.RequestID(ctx), "customer_registered", "Customer registered", map[string]interface{}{"user_id": user.ID.Hex()})
	return user, nil
}

func newRestaurant(ownerID primitive.ObjectID, in *RestaurantSignup, ts time.Time) *models.Restaurant {
	return &models.Restaurant{
		ID:               primitive.NewObjectID(),
		OwnerID:          ownerID,
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		Cuisine:          in.Cuisine,
		Phone:            in.Phone,
		Address:          in.Address,
		Menu:             []models.MenuItem{},
		Status:           models.RestaurantPending,
		TotalRatingSum:   models.InitialRatingSum,
		TotalRatingCount: models.InitialRatingCount,
		AverageRating:    float64(models.InitialRatingSum) / float64(models.InitialRatingCount),
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
}

// Login checks the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if helpers.IsKind(err, helpers.KindNotFound) {
			return nil, helpers.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if !helpers.VerifyPassword(password, user.PasswordHash) {
		return nil, helpers.Unauthorized("invalid email or password")
	}
	return user, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, p models.Principal) (*models.User, error) {
	return s.users.FindByID(ctx, p.UserID)
}

func (s *AuthService) ChangePassword(ctx context.Context, p models.Principal, current, next string) error {
	if len(next) < helpers.MinPasswordLength {
		return helpers.Validation("password must be at least %d characters", helpers.MinPasswordLength)
	}
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if !helpers.VerifyPassword(current, user.PasswordHash) {
		return helpers.Unauthorized("current password is incorrect")
	}
	hash, err := helpers.HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// EnsureSuperAdmin creates the platform superadmin on first start.
func (s *AuthService) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !helpers.IsKind(err, helpers.KindNotFound) {
		return err
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return err
	}
	ts := now()
	user := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         "Super Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	s.log.Info(logger.RequestID(ctx), "superadmin_seeded", "Superadmin account created", map[string]interface{}{"email": user.Email})
	return nil
}
