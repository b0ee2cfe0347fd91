package models

// Server-to-client realtime events.
const (
	EventNewOrder                = "new_order"
	EventOrderStatusUpdated      = "order_status_updated"
	EventOrderStatusChanged      = "order_status_changed"
	EventSystemStatsUpdate       = "system_stats_update"
	EventRestaurantStatusUpdated = "restaurant_status_updated"
	EventRestaurantRatingUpdated = "restaurant_rating_updated"
)

// Client-to-server realtime events.
const (
	EventJoinOrderRoom  = "join_order_room"
	EventLeaveOrderRoom = "leave_order_room"
)

// BroadcastRoom addresses every connected client.
const BroadcastRoom = ""

func RestaurantRoom(restaurantID string) string {
	return "restaurant_" + restaurantID
}

// Message is the websocket frame in both directions.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Notification is one fan-out unit: an event addressed to a room.
type Notification struct {
	Room    string      `json:"room"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type OrderStatusChange struct {
	OrderID      string       `json:"orderId"`
	RestaurantID string       `json:"restaurantId"`
	OldStatus    OrderStatus  `json:"oldStatus"`
	NewStatus    OrderStatus  `json:"newStatus"`
	Order        OrderSummary `json:"order"`
}

type RestaurantStatusChange struct {
	RestaurantID string           `json:"restaurantId"`
	Name         string           `json:"name"`
	OldStatus    RestaurantStatus `json:"oldStatus"`
	NewStatus    RestaurantStatus `json:"newStatus"`
}

// StatsHint tells dashboards to refresh aggregate counters.
type StatsHint struct {
	Reason string `json:"reason"`
}
