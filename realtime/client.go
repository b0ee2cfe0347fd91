package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go-food-ordering/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the API; the socket only carries hints
	},
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	principal *models.Principal
	rooms     map[string]struct{} // guarded by hub.mu

	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// ServeWS upgrades the request and serves the connection until it closes.
// principal is nil for anonymous connections, which only receive broadcasts.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, principal *models.Principal) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("", "ws_upgrade_failed", "Error during connection upgrade", err, nil)
		return
	}

	c := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		principal: principal,
		rooms:     make(map[string]struct{}),
	}
	h.register(c)
	if principal != nil && principal.Role == models.RoleAdmin && principal.HasRestaurant() {
		h.join(c, models.RestaurantRoom(principal.RestaurantID.Hex()))
	}

	go c.writePump()
	c.readPump(r.Context())
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("", "ws_read_failed", "Connection closed unexpectedly", map[string]interface{}{"error": err.Error()})
			}
			return
		}
		c.handle(ctx, data)
	}
}

func (c *Client) handle(ctx context.Context, data []byte) {
	var msg struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	switch msg.Event {
	case models.EventJoinOrderRoom, models.EventLeaveOrderRoom:
		var orderID string
		if err := json.Unmarshal(msg.Payload, &orderID); err != nil || orderID == "" {
			return
		}
		if msg.Event == models.EventLeaveOrderRoom {
			c.hub.leave(c, orderID)
			return
		}
		authCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if c.hub.canJoinOrder(authCtx, c, orderID) {
			c.hub.join(c, orderID)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
