package services

import (
	"context"
	"strings"

	"go-food-ordering/helpers"
	"go-food-ordering/logger"
	"go-food-ordering/models"
	"go-food-ordering/repository"

	"github.com/shopspring/decimal"
)

const MaxItemQuantity = 50

type CheckoutItem struct {
	MenuItemID string `json:"menuItemId" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=50"`
}

type CheckoutRequest struct {
	RestaurantID    string         `json:"restaurantId" validate:"required"`
	Items           []CheckoutItem `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress models.Address `json:"deliveryAddress"`
}

type OrderService struct {
	orders      OrderStore
	restaurants RestaurantStore
	notifier    Notifier
	strict      bool
	log         *logger.Logger
}

// NewOrderService builds the order lifecycle manager. With strict set, status
// updates must follow the forward transition table; otherwise any enumerated
// status is accepted.
func NewOrderService(orders OrderStore, restaurants RestaurantStore, notifier Notifier, strict bool, log *logger.Logger) *OrderService {
	return &OrderService{orders: orders, restaurants: restaurants, notifier: notifier, strict: strict, log: log}
}

// Quote prices a checkout against the live menu without persisting anything.
func (s *OrderService) Quote(ctx context.Context, req CheckoutRequest) (decimal.Decimal, error) {
	_, total, _, err := s.buildItems(ctx, req)
	return total, err
}

func (s *OrderService) buildItems(ctx context.Context, req CheckoutRequest) (*models.Restaurant, decimal.Decimal, []models.OrderItem, error) {
	rid, err := parseID(req.RestaurantID, "restaurant")
	if err != nil {
		return nil, decimal.Zero, nil, err
	}
	if len(req.Items) == 0 {
		return nil, decimal.Zero, nil, helpers.Validation("order must contain at least one item")
	}
	restaurant, err := s.restaurants.FindByID(ctx, rid)
	if err != nil {
		return nil, decimal.Zero, nil, err
	}
	if !restaurant.AcceptsOrders() {
		return nil, decimal.Zero, nil, helpers.InvalidState("restaurant is not accepting orders")
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Quantity < 1 || line.Quantity > MaxItemQuantity {
			return nil, decimal.Zero, nil, helpers.Validation("quantity must be between 1 and %d", MaxItemQuantity)
		}
		itemID, err := parseID(line.MenuItemID, "menu item")
		if err != nil {
			return nil, decimal.Zero, nil, err
		}
		menuItem := restaurant.MenuItemByID(itemID)
		if menuItem == nil {
			return nil, decimal.Zero, nil, helpers.Validation("menu item %s not found", line.MenuItemID)
		}
		if !menuItem.IsAvailable {
			return nil, decimal.Zero, nil, helpers.InvalidState("%s is currently unavailable", menuItem.Name)
		}
		price := decimal.NewFromFloat(menuItem.Price)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			Price:      menuItem.Price,
			Quantity:   line.Quantity,
		})
	}
	return restaurant, total.Round(2), items, nil
}

// toPaise converts a rupee amount to the gateway's integer minor unit.
func toPaise(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// place prices and stores the order. When paidPaise is set, the live total
// must equal the amount already captured by the gateway.
func (s *OrderService) place(ctx context.Context, customer models.Principal, req CheckoutRequest, payment models.Payment, paidPaise *int64) (*models.Order, error) {
	if customer.Role != models.RoleCustomer {
		return nil, helpers.Forbidden("only customers can place orders")
	}
	if strings.TrimSpace(req.DeliveryAddress.Street) == "" || strings.TrimSpace(req.DeliveryAddress.City) == "" {
		return nil, helpers.Validation("delivery address requires street and city")
	}
	restaurant, total, items, err := s.buildItems(ctx, req)
	if err != nil {
		return nil, err
	}
	if paidPaise != nil && toPaise(total) != *paidPaise {
		s.log.Warn(logger.RequestID(ctx), "payment_amount_mismatch", "Cart total differs from the paid amount", map[string]interface{}{
			"gateway_order_id": payment.GatewayOrderID,
			"paid_paise":       *paidPaise,
			"cart_paise":       toPaise(total),
		})
		return nil, helpers.Conflict("order total does not match the amount paid")
	}

	amount, _ := total.Float64()
	ts := now()
	order := &models.Order{
		UserID:          customer.UserID,
		RestaurantID:    restaurant.ID,
		Items:           items,
		TotalAmount:     amount,
		DeliveryAddress: req.DeliveryAddress,
		Payment:         payment,
		Status:          models.StatusPending,
		StatusHistory:   []models.StatusChange{},
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.log.Info(logger.RequestID(ctx), "order_placed", "Order placed", map[string]interface{}{
		"order_id":      order.ID.Hex(),
		"restaurant_id": order.RestaurantID.Hex(),
		"total":         order.TotalAmount,
		"method":        payment.Method,
	})
	s.notifier.Notify(ctx, models.Notification{
		Room:    models.RestaurantRoom(order.RestaurantID.Hex()),
		Event:   models.EventNewOrder,
		Payload: order.Summary(),
	})
	s.notifyStats(ctx, "order_created")
	return order, nil
}

// PlaceCashOrder creates a Pending cash-on-delivery order.
func (s *OrderService) PlaceCashOrder(ctx context.Context, customer models.Principal, req CheckoutRequest) (*models.Order, error) {
	return s.place(ctx, customer, req, models.Payment{Method: models.PaymentCOD, Status: models.PaymentPending}, nil)
}

// GatewayPayment is a verified payment against a gateway order.
type GatewayPayment struct {
	OrderID     string
	PaymentID   string
	AmountPaise int64
}

// PlaceOnlineOrder creates a Pending order for a verified gateway payment.
// The cart must price to the paid amount, and a gateway payment id can back at
// most one order.
func (s *OrderService) PlaceOnlineOrder(ctx context.Context, customer models.Principal, req CheckoutRequest, paid GatewayPayment) (*models.Order, error) {
	return s.place(ctx, customer, req, models.Payment{
		Method:           models.PaymentOnline,
		Status:           models.PaymentPaid,
		GatewayOrderID:   paid.OrderID,
		GatewayPaymentID: paid.PaymentID,
	}, &paid.AmountPaise)
}

// UpdateStatus moves an order of the actor's restaurant to newStatus and
// notifies the order room, the restaurant room and dashboards.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, newStatus models.OrderStatus, actor models.Principal) (*models.Order, error) {
	if !newStatus.Valid() {
		return nil, helpers.Validation("invalid status %q", newStatus)
	}
	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.HasRestaurant() || order.RestaurantID != actor.RestaurantID {
		return nil, helpers.Forbidden("order does not belong to your restaurant")
	}

	guard := repository.StatusGuard{RestaurantID: actor.RestaurantID}
	if s.strict {
		if !order.Status.CanTransition(newStatus) {
			return nil, helpers.InvalidState("cannot move order from %s to %s", order.Status, newStatus)
		}
		guard.From = []models.OrderStatus{order.Status}
	}

	change := models.StatusChange{From: order.Status, To: newStatus, ChangedBy: actor.UserID, At: now()}
	updated, err := s.orders.UpdateStatus(ctx, id, guard, change)
	if err != nil {
		if s.strict && helpers.IsKind(err, helpers.KindNotFound) {
			return nil, helpers.Conflict("order status changed concurrently, reload and retry")
		}
		return nil, err
	}

	s.notifyStatusChange(ctx, order.Status, updated)
	return updated, nil
}

// CancelByCustomer cancels the caller's own order while it is still Pending.
func (s *OrderService) CancelByCustomer(ctx context.Context, customer models.Principal, orderID string) (*models.Order, error) {
	order, err := s.CustomerOrder(ctx, customer, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending {
		return nil, helpers.InvalidState("only pending orders can be cancelled")
	}

	guard := repository.StatusGuard{UserID: customer.UserID, From: []models.OrderStatus{models.StatusPending}}
	change := models.StatusChange{From: order.Status, To: models.StatusCancelled, ChangedBy: customer.UserID, At: now()}
	updated, err := s.orders.UpdateStatus(ctx, order.ID, guard, change)
	if err != nil {
		if helpers.IsKind(err, helpers.KindNotFound) {
			return nil, helpers.InvalidState("order is no longer pending")
		}
		return nil, err
	}

	s.notifyStatusChange(ctx, order.Status, updated)
	return updated, nil
}

func (s *OrderService) notifyStatusChange(ctx context.Context, old models.OrderStatus, order *models.Order) {
	change := models.OrderStatusChange{
		OrderID:      order.ID.Hex(),
		RestaurantID: order.RestaurantID.Hex(),
		OldStatus:    old,
		NewStatus:    order.Status,
		Order:        order.Summary(),
	}
	s.log.Info(logger.RequestID(ctx), "order_status_changed", "Order status updated", map[string]interface{}{
		"order_id":   change.OrderID,
		"old_status": old,
		"new_status": order.Status,
	})
	s.notifier.Notify(ctx, models.Notification{Room: change.OrderID, Event: models.EventOrderStatusUpdated, Payload: change})
	s.notifier.Notify(ctx, models.Notification{
		Room:    models.RestaurantRoom(change.RestaurantID),
		Event:   models.EventOrderStatusChanged,
		Payload: change,
	})
	s.notifyStats(ctx, "order_status_changed")
}

func (s *OrderService) notifyStats(ctx context.Context, reason string) {
	s.notifier.Notify(ctx, models.Notification{
		Room:    models.BroadcastRoom,
		Event:   models.EventSystemStatsUpdate,
		Payload: models.StatsHint{Reason: reason},
	})
}

func (s *OrderService) CustomerOrders(ctx context.Context, customer models.Principal, page helpers.Page) (helpers.PageResult[models.Order], error) {
	orders, total, err := s.orders.ListByUser(ctx, customer.UserID, page)
	if err != nil {
		return helpers.PageResult[models.Order]{}, err
	}
	return helpers.NewPageResult(orders, total, page), nil
}

func (s *OrderService) CustomerOrder(ctx context.Context, customer models.Principal, orderID string) (*models.Order, error) {
	id, err := parseID(orderID, "order")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != customer.UserID {
		return nil, helpers.Forbidden("order does not belong to you")
	}
	return order, nil
}

// RestaurantOrders lists the admin's restaurant orders, newest first,
// optionally narrowed to one status.
func (s *OrderService) RestaurantOrders(ctx context.Context, actor models.Principal, status string, page helpers.Page) (helpers.PageResult[models.Order], error) {
	rid, err := requireRestaurant(actor)
	if err != nil {
		return helpers.PageResult[models.Order]{}, err
	}
	st := models.OrderStatus(status)
	if st != "" && !st.Valid() {
		return helpers.PageResult[models.Order]{}, helpers.Validation("invalid status %q", status)
	}
	orders, total, err := s.orders.ListByRestaurant(ctx, rid, st, page)
	if err != nil {
		return helpers.PageResult[models.Order]{}, err
	}
	return helpers.NewPageResult(orders, total, page), nil
}

// CanJoinOrderRoom allows the order's customer and the owning restaurant's
// admin to follow an order in realtime.
func (s *OrderService) CanJoinOrderRoom(ctx context.Context, p models.Principal, orderID string) bool {
	id, err := parseID(orderID, "order")
	if err != nil {
		return false
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return false
	}
	switch p.Role {
	case models.RoleCustomer:
		return order.UserID == p.UserID
	case models.RoleAdmin:
		return p.HasRestaurant() && order.RestaurantID == p.RestaurantID
	}
	return false
}
