package services

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"go-food-ordering/helpers"
	"go-food-ordering/logger"
	"go-food-ordering/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	helpers.PasswordCost = bcrypt.MinCost
	m.Run()
}

type testEnv struct {
	users       *fakeUsers
	restaurants *fakeRestaurants
	orders      *fakeOrders
	reviews     *fakeReviews
	notifier    *recordingNotifier

	restaurant *models.Restaurant
	admin      models.Principal
	customer   models.Principal
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:       newFakeUsers(),
		restaurants: newFakeRestaurants(),
		orders:      newFakeOrders(),
		notifier:    &recordingNotifier{},
	}
	env.reviews = newFakeReviews(env.restaurants)

	env.restaurant = env.restaurants.put(&models.Restaurant{
		Name:             "Spice Route",
		Status:           models.RestaurantApproved,
		IsOpen:           true,
		TotalRatingSum:   models.InitialRatingSum,
		TotalRatingCount: models.InitialRatingCount,
		AverageRating:    4,
		Menu: []models.MenuItem{
			{ID: primitive.NewObjectID(), Name: "Masala Dosa", Price: 0.1, IsAvailable: true},
			{ID: primitive.NewObjectID(), Name: "Filter Coffee", Price: 0.2, IsAvailable: true},
			{ID: primitive.NewObjectID(), Name: "Seasonal Thali", Price: 12, IsAvailable: false},
		},
	})
	env.admin = models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleAdmin, RestaurantID: env.restaurant.ID}
	env.customer = models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleCustomer}
	return env
}

func (env *testEnv) orderService(strict bool) *OrderService {
	return NewOrderService(env.orders, env.restaurants, env.notifier, strict, logger.Nop())
}

func (env *testEnv) seedOrder(t *testing.T, status models.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:       env.customer.UserID,
		RestaurantID: env.restaurant.ID,
		Items:        []models.OrderItem{{Name: "Masala Dosa", Price: 0.1, Quantity: 1}},
		TotalAmount:  0.1,
		Status:       status,
	}
	require.NoError(t, env.orders.Create(context.Background(), order))
	return order
}

func (env *testEnv) checkout(qty ...int) CheckoutRequest {
	req := CheckoutRequest{
		RestaurantID:    env.restaurant.ID.Hex(),
		DeliveryAddress: models.Address{Street: "12 MG Road", City: "Pune"},
	}
	for i, q := range qty {
		req.Items = append(req.Items, CheckoutItem{MenuItemID: env.restaurant.Menu[i].ID.Hex(), Quantity: q})
	}
	return req
}

func TestPlaceCashOrder(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.orderService(false)

	order, err := svc.PlaceCashOrder(context.Background(), env.customer, env.checkout(3, 1))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentCOD, order.Payment.Method)
	assert.Equal(t, models.PaymentPending, order.Payment.Status)
	assert.Equal(t, 0.5, order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Masala Dosa", order.Items[0].Name)
	assert.Equal(t, 3, order.Items[0].Quantity)

	newOrders := env.notifier.byEvent(models.EventNewOrder)
	require.Len(t, newOrders, 1)
	assert.Equal(t, models.RestaurantRoom(env.restaurant.ID.Hex()), newOrders[0].Room)
	assert.Len(t, env.notifier.byEvent(models.EventSystemStatsUpdate), 1)
}

func TestPlaceCashOrderRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(env *testEnv, req *CheckoutRequest)
		kind   helpers.ErrorKind
	}{
		{"unavailable item", func(env *testEnv, req *CheckoutRequest) {
			req.Items = []CheckoutItem{{MenuItemID: env.restaurant.Menu[2].ID.Hex(), Quantity: 1}}
		}, helpers.KindInvalidState},
		{"unknown item", func(env *testEnv, req *CheckoutRequest) {
			req.Items = []CheckoutItem{{MenuItemID: primitive.NewObjectID().Hex(), Quantity: 1}}
		}, helpers.KindValidation},
		{"quantity too large", func(env *testEnv, req *CheckoutRequest) {
			req.Items[0].Quantity = MaxItemQuantity + 1
		}, helpers.KindValidation},
		{"empty cart", func(env *testEnv, req *CheckoutRequest) {
			req.Items = nil
		}, helpers.KindValidation},
		{"missing address", func(env *testEnv, req *CheckoutRequest) {
			req.DeliveryAddress = models.Address{}
		}, helpers.KindValidation},
		{"closed restaurant", func(env *testEnv, req *CheckoutRequest) {
			_, _ = env.restaurants.SetOpen(context.Background(), env.restaurant.ID, false)
		}, helpers.KindInvalidState},
		{"unknown restaurant", func(env *testEnv, req *CheckoutRequest) {
			req.RestaurantID = primitive.NewObjectID().Hex()
		}, helpers.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			req := env.checkout(1)
			tt.mutate(env, &req)

			_, err := env.orderService(false).PlaceCashOrder(context.Background(), env.customer, req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, helpers.KindOf(err))
			assert.Empty(t, env.notifier.byEvent(models.EventNewOrder))
		})
	}
}

func TestPlaceCashOrderRequiresCustomer(t *testing.T) {
	env := setupTestEnv(t)
	_, err := env.orderService(false).PlaceCashOrder(context.Background(), env.admin, env.checkout(1))
	assert.True(t, helpers.IsKind(err, helpers.KindForbidden))
}

func TestPlaceOnlineOrderDuplicatePayment(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.orderService(false)
	ctx := context.Background()

	order, err := svc.PlaceOnlineOrder(ctx, env.customer, env.checkout(1), GatewayPayment{OrderID: "order_1", PaymentID: "pay_1", AmountPaise: 10})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.Payment.Status)
	assert.Equal(t, "pay_1", order.Payment.GatewayPaymentID)

	_, err = svc.PlaceOnlineOrder(ctx, env.customer, env.checkout(1), GatewayPayment{OrderID: "order_1", PaymentID: "pay_1", AmountPaise: 10})
	assert.True(t, helpers.IsKind(err, helpers.KindConflict))
}

func TestUpdateStatusAcceptsEveryEnumeratedStatus(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.orderService(false)
	order := env.seedOrder(t, models.StatusDelivered)

	for i, status := range models.OrderStatuses {
		updated, err := svc.UpdateStatus(context.Background(), order.ID.Hex(), status, env.admin)
		require.NoError(t, err, status)
		assert.Equal(t, status, updated.Status)
		assert.False(t, updated.UpdatedAt.IsZero())
		require.Len(t, updated.StatusHistory, i+1)
		assert.Equal(t, status, updated.StatusHistory[i].To)
		assert.Equal(t, env.admin.UserID, updated.StatusHistory[i].ChangedBy)
	}
}

func TestUpdateStatusNotifiesRooms(t *testing.T) {
	env := setupTestEnv(t)
	order := env.seedOrder(t, models.StatusPending)

	_, err := env.orderService(false).UpdateStatus(context.Background(), order.ID.Hex(), models.StatusConfirmed, env.admin)
	require.NoError(t, err)

	updates := env.notifier.byEvent(models.EventOrderStatusUpdated)
	require.Len(t, updates, 1)
	assert.Equal(t, order.ID.Hex(), updates[0].Room)

	changes := env.notifier.byEvent(models.EventOrderStatusChanged)
	require.Len(t, changes, 1)
	assert.Equal(t, models.RestaurantRoom(env.restaurant.ID.Hex()), changes[0].Room)
	payload := changes[0].Payload.(models.OrderStatusChange)
	assert.Equal(t, order.ID.Hex(), payload.OrderID)
	assert.Equal(t, models.StatusPending, payload.OldStatus)
	assert.Equal(t, models.StatusConfirmed, payload.NewStatus)
	assert.Equal(t, models.StatusConfirmed, payload.Order.Status)

	stats := env.notifier.byEvent(models.EventSystemStatsUpdate)
	require.Len(t, stats, 1)
	assert.Equal(t, models.BroadcastRoom, stats[0].Room)
}

func TestUpdateStatusErrors(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.orderService(false)
	ctx := context.Background()
	order := env.seedOrder(t, models.StatusPending)

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, order.ID.Hex(), "Shipped", env.admin)
		assert.True(t, helpers.IsKind(err, helpers.KindValidation))
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, primitive.NewObjectID().Hex(), models.StatusConfirmed, env.admin)
		assert.True(t, helpers.IsKind(err, helpers.KindNotFound))
	})

	t.Run("foreign restaurant", func(t *testing.T) {
		env.notifier.reset()
		other := models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleAdmin, RestaurantID: primitive.NewObjectID()}
		_, err := svc.UpdateStatus(ctx, order.ID.Hex(), models.StatusConfirmed, other)
		assert.True(t, helpers.IsKind(err, helpers.KindForbidden))

		stored, err := env.orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, stored.Status)
		assert.Empty(t, stored.StatusHistory)
		assert.Empty(t, env.notifier.byEvent(models.EventOrderStatusChanged))
	})
}

func TestUpdateStatusStrictMode(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.orderService(true)
	ctx := context.Background()
	order := env.seedOrder(t, models.StatusPending)

	_, err := svc.UpdateStatus(ctx, order.ID.Hex(), models.StatusDelivered, env.admin)
	assert.True(t, helpers.IsKind(err, helpers.KindInvalidState))

	for _, next := range []models.OrderStatus{models.StatusConfirmed, models.StatusPreparing, models.StatusOutForDelivery, models.StatusDelivered} {
		_, err := svc.UpdateStatus(ctx, order.ID.Hex(), next, env.admin)
		require.NoError(t, err, next)
	}

	_, err = svc.UpdateStatus(ctx, order.ID.Hex(), models.StatusCancelled, env.admin)
	assert.True(t, helpers.IsKind(err, helpers.KindInvalidState))
}

func TestCancelByCustomer(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.orderService(false)
	ctx := context.Background()

	pending := env.seedOrder(t, models.StatusPending)
	cancelled, err := svc.CancelByCustomer(ctx, env.customer, pending.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Len(t, env.notifier.byEvent(models.EventOrderStatusChanged), 1)

	confirmed := env.seedOrder(t, models.StatusConfirmed)
	_, err = svc.CancelByCustomer(ctx, env.customer, confirmed.ID.Hex())
	assert.True(t, helpers.IsKind(err, helpers.KindInvalidState))

	stranger := models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleCustomer}
	_, err = svc.CancelByCustomer(ctx, stranger, env.seedOrder(t, models.StatusPending).ID.Hex())
	assert.True(t, helpers.IsKind(err, helpers.KindForbidden))
}

func TestRestaurantOrders(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.orderService(false)
	ctx := context.Background()
	env.seedOrder(t, models.StatusPending)
	env.seedOrder(t, models.StatusDelivered)

	all, err := svc.RestaurantOrders(ctx, env.admin, "", helpers.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	pending, err := svc.RestaurantOrders(ctx, env.admin, "Pending", helpers.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Total)

	_, err = svc.RestaurantOrders(ctx, env.admin, "bogus", helpers.NewPage(1, 10))
	assert.True(t, helpers.IsKind(err, helpers.KindValidation))

	_, err = svc.RestaurantOrders(ctx, env.customer, "", helpers.NewPage(1, 10))
	assert.True(t, helpers.IsKind(err, helpers.KindForbidden))
}

func TestCanJoinOrderRoom(t *testing.T) {
	env := setupTestEnv(t)
	svc := env.orderService(false)
	ctx := context.Background()
	order := env.seedOrder(t, models.StatusPending)

	assert.True(t, svc.CanJoinOrderRoom(ctx, env.customer, order.ID.Hex()))
	assert.True(t, svc.CanJoinOrderRoom(ctx, env.admin, order.ID.Hex()))
	assert.False(t, svc.CanJoinOrderRoom(ctx, models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleCustomer}, order.ID.Hex()))
	assert.False(t, svc.CanJoinOrderRoom(ctx, models.Principal{Role: models.RoleAdmin, RestaurantID: primitive.NewObjectID()}, order.ID.Hex()))
	assert.False(t, svc.CanJoinOrderRoom(ctx, env.customer, "not-an-id"))
}

func TestOrderLogsCarryRequestID(t *testing.T) {
	env := setupTestEnv(t)
	var buf bytes.Buffer
	svc := NewOrderService(env.orders, env.restaurants, env.notifier, false, logger.NewLogger("test", logger.WithOutput(&buf)))

	ctx := logger.WithRequestID(context.Background(), "req-order-1")
	_, err := svc.PlaceCashOrder(ctx, env.customer, env.checkout(1))
	require.NoError(t, err)

	var entry logger.LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "order_placed", entry.Action)
	assert.Equal(t, "req-order-1", entry.RequestID)
}
