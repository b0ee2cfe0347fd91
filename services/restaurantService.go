package services

import (
	"context"
	"strings"

	"go-food-ordering/helpers"
	"go-food-ordering/logger"
	"go-food-ordering/models"
	"go-food-ordering/repository"

	"golang.org/x/sync/errgroup"
)

type MenuItemInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gt=0"`
	Category    string  `json:"category"`
	IsAvailable *bool   `json:"isAvailable"`
	ImageURL    string  `json:"imageUrl"`
}

func (in MenuItemInput) toMenuItem() (models.MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.MenuItem{}, helpers.Validation("menu item name is required")
	}
	if in.Price <= 0 {
		return models.MenuItem{}, helpers.Validation("menu item price must be positive")
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	return models.MenuItem{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		IsAvailable: available,
		ImageURL:    in.ImageURL,
	}, nil
}

type PlatformStats struct {
	Restaurants map[models.RestaurantStatus]int64 `json:"restaurants"`
	Orders      map[models.OrderStatus]int64      `json:"orders"`
	Customers   int64                             `json:"customers"`
	Admins      int64                             `json:"admins"`
}

type RestaurantService struct {
	restaurants RestaurantStore
	orders      OrderStore
	users       UserStore
	notifier    Notifier
	log         *logger.Logger
}

func NewRestaurantService(restaurants RestaurantStore, orders OrderStore, users UserStore, notifier Notifier, log *logger.Logger) *RestaurantService {
	return &RestaurantService{restaurants: restaurants, orders: orders, users: users, notifier: notifier, log: log}
}

// ListPublic returns approved restaurants, best rated first. openOnly drops
// restaurants that are not taking orders right now.
func (s *RestaurantService) ListPublic(ctx context.Context, city, cuisine string, openOnly bool, page helpers.Page) (helpers.PageResult[models.Restaurant], error) {
	filter := repository.RestaurantFilter{
		Status:  models.RestaurantApproved,
		City:    strings.TrimSpace(city),
		Cuisine: strings.TrimSpace(cuisine),
		OpenNow: openOnly,
	}
	restaurants, total, err := s.restaurants.List(ctx, filter, page)
	if err != nil {
		return helpers.PageResult[models.Restaurant]{}, err
	}
	return helpers.NewPageResult(restaurants, total, page), nil
}

// PublicDetail hides restaurants that are not approved.
func (s *RestaurantService) PublicDetail(ctx context.Context, restaurantID string) (*models.Restaurant, error) {
	id, err := parseID(restaurantID, "restaurant")
	if err != nil {
		return nil, err
	}
	restaurant, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if restaurant.Status != models.RestaurantApproved {
		return nil, helpers.NotFound("restaurant not found")
	}
	return restaurant, nil
}

func (s *RestaurantService) OwnRestaurant(ctx context.Context, admin models.Principal) (*models.Restaurant, error) {
	rid, err := requireRestaurant(admin)
	if err != nil {
		return nil, err
	}
	return s.restaurants.FindByID(ctx, rid)
}

func (s *RestaurantService) UpdateProfile(ctx context.Context, admin models.Principal, p repository.RestaurantProfile) (*models.Restaurant, error) {
	rid, err := requireRestaurant(admin)
	if err != nil {
		return nil, err
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return nil, helpers.Validation("restaurant name cannot be empty")
	}
	return s.restaurants.UpdateProfile(ctx, rid, p)
}

// SetOpen toggles whether the restaurant takes orders. Only approved
// restaurants can open.
func (s *RestaurantService) SetOpen(ctx context.Context, admin models.Principal, open bool) (*models.Restaurant, error) {
	rid, err := requireRestaurant(admin)
	if err != nil {
		return nil, err
	}
	if open {
		current, err := s.restaurants.FindByID(ctx, rid)
		if err != nil {
			return nil, err
		}
		if current.Status != models.RestaurantApproved {
			return nil, helpers.InvalidState("restaurant must be approved before opening")
		}
	}
	return s.restaurants.SetOpen(ctx, rid, open)
}

// SubmitForApproval moves a pending or rejected restaurant to pending_approval.
func (s *RestaurantService) SubmitForApproval(ctx context.Context, admin models.Principal) (*models.Restaurant, error) {
	rid, err := requireRestaurant(admin)
	if err != nil {
		return nil, err
	}
	current, err := s.restaurants.FindByID(ctx, rid)
	if err != nil {
		return nil, err
	}
	if current.Status != models.RestaurantPending && current.Status != models.RestaurantRejected {
		return nil, helpers.InvalidState("restaurant is already %s", current.Status)
	}
	updated, err := s.restaurants.SetStatus(ctx, rid, models.RestaurantPendingApproval,
		models.RestaurantPending, models.RestaurantRejected)
	if err != nil {
		if helpers.IsKind(err, helpers.KindNotFound) {
			return nil, helpers.InvalidState("restaurant status changed, reload and retry")
		}
		return nil, err
	}
	s.notifyStats(ctx, "restaurant_submitted")
	return updated, nil
}

func (s *RestaurantService) ListByStatus(ctx context.Context, status string, page helpers.Page) (helpers.PageResult[models.Restaurant], error) {
	st := models.RestaurantStatus(status)
	if st != "" && !st.Valid() {
		return helpers.PageResult[models.Restaurant]{}, helpers.Validation("invalid restaurant status %q", status)
	}
	restaurants, total, err := s.restaurants.List(ctx, repository.RestaurantFilter{Status: st}, page)
	if err != nil {
		return helpers.PageResult[models.Restaurant]{}, err
	}
	return helpers.NewPageResult(restaurants, total, page), nil
}

// SetStatus approves or rejects a restaurant. Rejecting also closes it.
func (s *RestaurantService) SetStatus(ctx context.Context, restaurantID string, status models.RestaurantStatus) (*models.Restaurant, error) {
	if status != models.RestaurantApproved && status != models.RestaurantRejected {
		return nil, helpers.Validation("status must be approved or rejected")
	}
	id, err := parseID(restaurantID, "restaurant")
	if err != nil {
		return nil, err
	}
	current, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.restaurants.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if status == models.RestaurantRejected && updated.IsOpen {
		if updated, err = s.restaurants.SetOpen(ctx, id, false); err != nil {
			return nil, err
		}
	}

	change := models.RestaurantStatusChange{
		RestaurantID: id.Hex(),
		Name:         updated.Name,
		OldStatus:    current.Status,
		NewStatus:    status,
	}
	s.log.Info(logger.RequestID(ctx), "restaurant_status_changed", "Restaurant status updated", map[string]interface{}{
		"restaurant_id": change.RestaurantID,
		"old_status":    change.OldStatus,
		"new_status":    change.NewStatus,
	})
	s.notifier.Notify(ctx, models.Notification{
		Room:    models.RestaurantRoom(change.RestaurantID),
		Event:   models.EventRestaurantStatusUpdated,
		Payload: change,
	})
	s.notifyStats(ctx, "restaurant_status_changed")
	return updated, nil
}

// Stats gathers the platform counters concurrently.
func (s *RestaurantService) Stats(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.restaurants.CountByStatus(gctx)
		stats.Restaurants = counts
		return err
	})
	g.Go(func() error {
		counts, err := s.orders.CountByStatus(gctx)
		stats.Orders = counts
		return err
	})
	g.Go(func() error {
		n, err := s.users.CountByRole(gctx, models.RoleCustomer)
		stats.Customers = n
		return err
	})
	g.Go(func() error {
		n, err := s.users.CountByRole(gctx, models.RoleAdmin)
		stats.Admins = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *RestaurantService) AddMenuItem(ctx context.Context, admin models.Principal, in MenuItemInput) (*models.Restaurant, error) {
	rid, err := requireRestaurant(admin)
	if err != nil {
		return nil, err
	}
	item, err := in.toMenuItem()
	if err != nil {
		return nil, err
	}
	return s.restaurants.AddMenuItems(ctx, rid, item)
}

func (s *RestaurantService) UpdateMenuItem(ctx context.Context, admin models.Principal, itemID string, in MenuItemInput) (*models.Restaurant, error) {
	rid, err := requireRestaurant(admin)
	if err != nil {
		return nil, err
	}
	id, err := parseID(itemID, "menu item")
	if err != nil {
		return nil, err
	}
	item, err := in.toMenuItem()
	if err != nil {
		return nil, err
	}
	item.ID = id
	return s.restaurants.UpdateMenuItem(ctx, rid, item)
}

func (s *RestaurantService) RemoveMenuItem(ctx context.Context, admin models.Principal, itemID string) (*models.Restaurant, error) {
	rid, err := requireRestaurant(admin)
	if err != nil {
		return nil, err
	}
	id, err := parseID(itemID, "menu item")
	if err != nil {
		return nil, err
	}
	return s.restaurants.RemoveMenuItem(ctx, rid, id)
}

func (s *RestaurantService) notifyStats(ctx context.Context, reason string) {
	s.notifier.Notify(ctx, models.Notification{
		Room:    models.BroadcastRoom,
		Event:   models.EventSystemStatsUpdate,
		Payload: models.StatsHint{Reason: reason},
	})
}
