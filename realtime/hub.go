package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go-food-ordering/logger"
	"go-food-ordering/models"
)

// RoomAuthorizer decides whether a connection may track an order.
type RoomAuthorizer interface {
	CanJoinOrderRoom(ctx context.Context, principal models.Principal, orderID string) bool
}

// Hub keeps the room membership of every live websocket connection and
// delivers events to them. Delivery is at-most-once: a client whose send
// buffer is full misses the event, and nothing is kept for clients that
// connect later.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	authorizer RoomAuthorizer
	log        *logger.Logger
}

func NewHub(authorizer RoomAuthorizer, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		authorizer: authorizer,
		log:        log,
	}
}

// SetAuthorizer wires the authorizer after construction; services and the hub
// depend on each other.
func (h *Hub) SetAuthorizer(a RoomAuthorizer) {
	h.mu.Lock()
	h.authorizer = a
	h.mu.Unlock()
}

// Run blocks until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.mu.Lock()
	for c := range h.clients {
		c.close()
	}
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()
	return nil
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		for room := range c.rooms {
			h.leaveLocked(c, room)
		}
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	h.leaveLocked(c, room)
	h.mu.Unlock()
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

func (h *Hub) canJoinOrder(ctx context.Context, c *Client, orderID string) bool {
	h.mu.RLock()
	authorizer := h.authorizer
	h.mu.RUnlock()
	if c.principal == nil || authorizer == nil {
		return false
	}
	return authorizer.CanJoinOrderRoom(ctx, *c.principal, orderID)
}

// Notify delivers n to its room, or to every client for the broadcast room.
func (h *Hub) Notify(_ context.Context, n models.Notification) {
	frame, err := json.Marshal(models.Message{Event: n.Event, Payload: n.Payload})
	if err != nil {
		h.log.Error("", "ws_marshal_failed", "Could not encode realtime event", err, map[string]interface{}{"event": n.Event})
		return
	}
	h.deliver(n.Room, frame)
}

func (h *Hub) deliver(room string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.clients
	if room != models.BroadcastRoom {
		targets = h.rooms[room]
	}
	for c := range targets {
		select {
		case c.send <- frame:
		default:
			h.log.Warn("", "ws_event_dropped", "Client send buffer full, event dropped", map[string]interface{}{"room": room})
		}
	}
}

// RoomSize reports the number of connections in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room == models.BroadcastRoom {
		return len(h.clients)
	}
	return len(h.rooms[room])
}
