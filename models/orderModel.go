package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending        OrderStatus = "Pending"
	StatusConfirmed      OrderStatus = "Confirmed"
	StatusPreparing      OrderStatus = "Preparing"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

var forwardTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered},
}

func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal statuses have no next action for the customer.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether to is a forward step from s.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range forwardTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type Payment struct {
	Method           PaymentMethod `bson:"method" json:"method"`
	Status           PaymentStatus `bson:"status" json:"status"`
	GatewayOrderID   string        `bson:"gatewayOrderId,omitempty" json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string        `bson:"gatewayPaymentId,omitempty" json:"gatewayPaymentId,omitempty"`
}

// OrderItem is a snapshot of a menu item at checkout time.
type OrderItem struct {
	MenuItemID primitive.ObjectID `bson:"menuItemId" json:"menuItemId"`
	Name       string             `bson:"name" json:"name"`
	Price      float64            `bson:"price" json:"price"`
	Quantity   int                `bson:"quantity" json:"quantity"`
}

type StatusChange struct {
	From      OrderStatus        `bson:"from" json:"from"`
	To        OrderStatus        `bson:"to" json:"to"`
	ChangedBy primitive.ObjectID `bson:"changedBy" json:"changedBy"`
	At        time.Time          `bson:"at" json:"at"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	RestaurantID    primitive.ObjectID `bson:"restaurantId" json:"restaurantId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	DeliveryAddress Address            `bson:"deliveryAddress" json:"deliveryAddress"`
	Payment         Payment            `bson:"payment" json:"payment"`
	Status          OrderStatus        `bson:"status" json:"status"`
	StatusHistory   []StatusChange     `bson:"statusHistory" json:"statusHistory"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderSummary is the compact shape pushed over the realtime channel.
type OrderSummary struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	RestaurantID string      `json:"restaurantId"`
	Status       OrderStatus `json:"status"`
	TotalAmount  float64     `json:"totalAmount"`
	ItemCount    int         `json:"itemCount"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (o *Order) Summary() OrderSummary {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return OrderSummary{
		ID:           o.ID.Hex(),
		UserID:       o.UserID.Hex(),
		RestaurantID: o.RestaurantID.Hex(),
		Status:       o.Status,
		TotalAmount:  o.TotalAmount,
		ItemCount:    count,
		UpdatedAt:    o.UpdatedAt,
	}
}
