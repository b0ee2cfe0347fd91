package services

import (
	"context"
	"sort"
	"sync"

	"go-food-ordering/helpers"
	"go-food-ordering/models"
	"go-food-ordering/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[primitive.ObjectID]models.User)}
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return helpers.Conflict("email already registered")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, helpers.NotFound("user not found")
	}
	return &u, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, helpers.NotFound("user not found")
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return helpers.NotFound("user not found")
	}
	u.PasswordHash = hash
	f.users[id] = u
	return nil
}

func (f *fakeUsers) CountByRole(_ context.Context, role models.Role) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type fakeRestaurants struct {
	mu          sync.Mutex
	restaurants map[primitive.ObjectID]*models.Restaurant
	deleted     []primitive.ObjectID
}

func newFakeRestaurants() *fakeRestaurants {
	return &fakeRestaurants{restaurants: make(map[primitive.ObjectID]*models.Restaurant)}
}

func copyRestaurant(r *models.Restaurant) *models.Restaurant {
	c := *r
	if r.Menu != nil {
		c.Menu = make([]models.MenuItem, len(r.Menu))
		copy(c.Menu, r.Menu)
	}
	return &c
}

func (f *fakeRestaurants) put(r *models.Restaurant) *models.Restaurant {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	f.restaurants[r.ID] = copyRestaurant(r)
	return r
}

func (f *fakeRestaurants) Create(_ context.Context, r *models.Restaurant) error {
	f.put(r)
	return nil
}

func (f *fakeRestaurants) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.restaurants, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRestaurants) FindByID(_ context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.restaurants[id]
	if !ok {
		return nil, helpers.NotFound("restaurant not found")
	}
	return copyRestaurant(r), nil
}

func (f *fakeRestaurants) List(_ context.Context, filter repository.RestaurantFilter, page helpers.Page) ([]models.Restaurant, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Restaurant
	for _, r := range f.restaurants {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.OpenNow && !r.IsOpen {
			continue
		}
		out = append(out, *copyRestaurant(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AverageRating > out[j].AverageRating })
	return out, int64(len(out)), nil
}

func (f *fakeRestaurants) modify(id primitive.ObjectID, fn func(r *models.Restaurant) bool) (*models.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.restaurants[id]
	if !ok || !fn(r) {
		return nil, helpers.NotFound("restaurant not found")
	}
	return copyRestaurant(r), nil
}

func (f *fakeRestaurants) UpdateProfile(_ context.Context, id primitive.ObjectID, p repository.RestaurantProfile) (*models.Restaurant, error) {
	return f.modify(id, func(r *models.Restaurant) bool {
		if p.Name != nil {
			r.Name = *p.Name
		}
		if p.Cuisine != nil {
			r.Cuisine = *p.Cuisine
		}
		return true
	})
}

func (f *fakeRestaurants) SetOpen(_ context.Context, id primitive.ObjectID, open bool) (*models.Restaurant, error) {
	return f.modify(id, func(r *models.Restaurant) bool {
		r.IsOpen = open
		return true
	})
}

func (f *fakeRestaurants) SetStatus(_ context.Context, id primitive.ObjectID, status models.RestaurantStatus, from ...models.RestaurantStatus) (*models.Restaurant, error) {
	return f.modify(id, func(r *models.Restaurant) bool {
		if len(from) > 0 {
			matched := false
			for _, s := range from {
				matched = matched || r.Status == s
			}
			if !matched {
				return false
			}
		}
		r.Status = status
		return true
	})
}

func (f *fakeRestaurants) AddMenuItems(_ context.Context, id primitive.ObjectID, items ...models.MenuItem) (*models.Restaurant, error) {
	return f.modify(id, func(r *models.Restaurant) bool {
		for _, it := range items {
			if it.ID.IsZero() {
				it.ID = primitive.NewObjectID()
			}
			r.Menu = append(r.Menu, it)
		}
		return true
	})
}

func (f *fakeRestaurants) UpdateMenuItem(_ context.Context, id primitive.ObjectID, item models.MenuItem) (*models.Restaurant, error) {
	return f.modify(id, func(r *models.Restaurant) bool {
		for i := range r.Menu {
			if r.Menu[i].ID == item.ID {
				r.Menu[i] = item
				return true
			}
		}
		return false
	})
}

func (f *fakeRestaurants) RemoveMenuItem(_ context.Context, id, itemID primitive.ObjectID) (*models.Restaurant, error) {
	return f.modify(id, func(r *models.Restaurant) bool {
		for i := range r.Menu {
			if r.Menu[i].ID == itemID {
				r.Menu = append(r.Menu[:i], r.Menu[i+1:]...)
				return true
			}
		}
		return false
	})
}

func (f *fakeRestaurants) CountByStatus(_ context.Context) (map[models.RestaurantStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[models.RestaurantStatus]int64)
	for _, r := range f.restaurants {
		counts[r.Status]++
	}
	return counts, nil
}

func (f *fakeRestaurants) applyRating(id primitive.ObjectID, rating int) (*models.Restaurant, error) {
	return f.modify(id, func(r *models.Restaurant) bool {
		r.TotalRatingSum += float64(rating)
		r.TotalRatingCount++
		r.AverageRating = r.TotalRatingSum / float64(r.TotalRatingCount)
		return true
	})
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[primitive.ObjectID]*models.Order)}
}

func copyOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	c.StatusHistory = append([]models.StatusChange{}, o.StatusHistory...)
	return &c
}

func (f *fakeOrders) Create(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pid := order.Payment.GatewayPaymentID; pid != "" {
		for _, o := range f.orders {
			if o.Payment.GatewayPaymentID == pid {
				return helpers.Conflict("payment already used for another order")
			}
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	f.orders[order.ID] = copyOrder(order)
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, helpers.NotFound("order not found")
	}
	return copyOrder(o), nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, guard repository.StatusGuard, change models.StatusChange) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok ||
		(!guard.RestaurantID.IsZero() && o.RestaurantID != guard.RestaurantID) ||
		(!guard.UserID.IsZero() && o.UserID != guard.UserID) {
		return nil, helpers.NotFound("order not found")
	}
	if len(guard.From) > 0 {
		matched := false
		for _, s := range guard.From {
			matched = matched || o.Status == s
		}
		if !matched {
			return nil, helpers.NotFound("order not found")
		}
	}
	o.Status = change.To
	o.UpdatedAt = change.At
	o.StatusHistory = append(o.StatusHistory, change)
	return copyOrder(o), nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID primitive.ObjectID, _ helpers.Page) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *copyOrder(o))
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) ListByRestaurant(_ context.Context, rid primitive.ObjectID, status models.OrderStatus, _ helpers.Page) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.RestaurantID == rid && (status == "" || o.Status == status) {
			out = append(out, *copyOrder(o))
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrders) CountByStatus(_ context.Context) (map[models.OrderStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[models.OrderStatus]int64)
	for _, o := range f.orders {
		counts[o.Status]++
	}
	return counts, nil
}

// fakeReviews enforces one review per order and updates the rating
// aggregate on the shared restaurant fake under a single lock.
type fakeReviews struct {
	mu          sync.Mutex
	reviews     map[primitive.ObjectID]models.Review
	restaurants *fakeRestaurants
}

func newFakeReviews(restaurants *fakeRestaurants) *fakeReviews {
	return &fakeReviews{reviews: make(map[primitive.ObjectID]models.Review), restaurants: restaurants}
}

func (f *fakeReviews) CreateWithRating(_ context.Context, review *models.Review) (*models.Restaurant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.reviews[review.OrderID]; exists {
		return nil, helpers.Conflict("order has already been reviewed")
	}
	restaurant, err := f.restaurants.applyRating(review.RestaurantID, review.Rating)
	if err != nil {
		return nil, err
	}
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	f.reviews[review.OrderID] = *review
	return restaurant, nil
}

func (f *fakeReviews) FindByOrder(_ context.Context, orderID primitive.ObjectID) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[orderID]
	if !ok {
		return nil, helpers.NotFound("review not found")
	}
	return &r, nil
}

func (f *fakeReviews) ListByRestaurant(_ context.Context, rid primitive.ObjectID, _ helpers.Page) ([]models.Review, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Review
	for _, r := range f.reviews {
		if r.RestaurantID == rid {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *recordingNotifier) byEvent(event string) []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Notification
	for _, note := range n.sent {
		if note.Event == event {
			out = append(out, note)
		}
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	n.sent = nil
	n.mu.Unlock()
}
