package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-food-ordering/logger"
	"go-food-ordering/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeName   = "notifications_fanout"
	publishTimeout = 2 * time.Second
	reconnectDelay = 5 * time.Second
)

var errNotConnected = errors.New("rabbitmq channel not connected")

// LocalNotifier delivers to the connections of this instance.
type LocalNotifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type envelope struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Relay fans notifications out to every instance through a RabbitMQ fanout
// exchange. Each instance consumes from its own exclusive queue and hands the
// events to its local hub. Messages are transient and auto-acked, matching
// the at-most-once contract of the websocket channel.
type Relay struct {
	url   string
	local LocalNotifier
	log   *logger.Logger

	mu   sync.RWMutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func newRelay(url string, local LocalNotifier, log *logger.Logger) *Relay {
	return &Relay{url: url, local: local, log: log}
}

// Dial connects to RabbitMQ and declares the exchange.
func Dial(url string, local LocalNotifier, log *logger.Logger) (*Relay, error) {
	r := newRelay(url, local, log)
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Relay) connect() error {
	start := time.Now()
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchangeName, // exchange name
		"fanout",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // args
	); err != nil {
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	r.mu.Lock()
	r.conn, r.ch = conn, ch
	r.mu.Unlock()
	r.log.Info("", "rabbitmq_connected", "Connected to RabbitMQ (notifications)", map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// Notify publishes n to every instance. If the broker is unavailable the
// event is delivered to local connections only.
func (r *Relay) Notify(ctx context.Context, n models.Notification) {
	if err := r.publish(ctx, n); err != nil {
		r.log.Warn("", "relay_publish_failed", "Falling back to local delivery", map[string]interface{}{
			"event": n.Event,
			"error": err.Error(),
		})
		r.local.Notify(ctx, n)
	}
}

func encode(n models.Notification) ([]byte, error) {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Room: n.Room, Event: n.Event, Payload: payload})
}

func decode(body []byte) (models.Notification, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.Notification{}, err
	}
	if env.Event == "" {
		return models.Notification{}, errors.New("notification without event")
	}
	return models.Notification{Room: env.Room, Event: env.Event, Payload: env.Payload}, nil
}

func (r *Relay) publish(ctx context.Context, n models.Notification) error {
	body, err := encode(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	r.mu.RLock()
	ch := r.ch
	r.mu.RUnlock()
	if ch == nil || ch.IsClosed() {
		return errNotConnected
	}

	// Publishing outlives the request; only the timeout bounds it.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	return ch.PublishWithContext(pubCtx,
		exchangeName, // exchange
		"",           // routing key (ignored for fanout)
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Run consumes relayed notifications into the local hub until ctx is done,
// reconnecting after broker failures.
func (r *Relay) Run(ctx context.Context) error {
	defer r.Close()
	for {
		err := r.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}
		r.log.Error("", "relay_consume_failed", "Notification consumer stopped, reconnecting", err, nil)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(reconnectDelay):
			}
			if err := r.connect(); err != nil {
				r.log.Warn("", "relay_reconnect_failed", "Reconnect failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			break
		}
	}
}

func (r *Relay) consume(ctx context.Context) error {
	r.mu.RLock()
	ch := r.ch
	r.mu.RUnlock()
	if ch == nil {
		return errNotConnected
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	msgs, err := ch.Consume(
		q.Name,
		"",
		true, // auto-ack
		true, // exclusive
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			n, err := decode(d.Body)
			if err != nil {
				r.log.Warn("", "relay_bad_message", "Dropping malformed notification", map[string]interface{}{"error": err.Error()})
				continue
			}
			r.local.Notify(ctx, n)
		}
	}
}

func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		r.conn.Close()
	}
	r.conn, r.ch = nil, nil
}
