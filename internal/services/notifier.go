package services

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hospital-admin-server/internal/logging"
)

// Queue event names shared with the admin SPA and the doctor screens.
const (
	EventRefreshQueue    = "refreshQueue"
	EventQueueUpdated    = "queueUpdated"
	EventQueueUpdatedAll = "queueUpdatedForAllDoctors"
)

// QueueEvent scopes a queue change to one doctor and one calendar day.
type QueueEvent struct {
	DoctorID uint   `json:"doctorId"`
	Date     string `json:"date"`
}

// QueueNotifier is the push-channel capability: constructed once at
// boot and handed to the components that need it, never reached for
// through a global.
type QueueNotifier interface {
	Emit(ctx context.Context, event string, payload QueueEvent) error
	Subscribe(event string, handler func(QueueEvent))
	Close() error
}

// decodeQueueEvent normalizes the payload shapes seen on the wire.
// Older emitters publish a bare doctor id; current ones publish the
// {doctorId, date} object. Both are accepted here at the boundary so
// core logic only ever sees QueueEvent.
func decodeQueueEvent(payload string) QueueEvent {
	var event QueueEvent
	if err := json.Unmarshal([]byte(payload), &event); err == nil && event.DoctorID != 0 {
		return event
	}
	if id, err := strconv.ParseUint(payload, 10, 64); err == nil {
		return QueueEvent{DoctorID: uint(id), Date: time.Now().Format("2006-01-02")}
	}
	return event
}

// RedisNotifier carries queue events over redis pub/sub.
type RedisNotifier struct {
	client *redis.Client

	mu      sync.Mutex
	pubsubs []*redis.PubSub
}

// NewRedisNotifier connects to redis and verifies the connection.
func NewRedisNotifier(redisURL string) (*RedisNotifier, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisNotifier{client: client}, nil
}

// Emit publishes one queue event. Callers treat delivery as
// fire-and-forget; reconnection is the driver's concern.
func (n *RedisNotifier) Emit(ctx context.Context, event string, payload QueueEvent) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, event, data).Err()
}

// Subscribe registers a handler for one event name. The subscription
// lives until Close.
func (n *RedisNotifier) Subscribe(event string, handler func(QueueEvent)) {
	pubsub := n.client.Subscribe(context.Background(), event)

	n.mu.Lock()
	n.pubsubs = append(n.pubsubs, pubsub)
	n.mu.Unlock()

	go func() {
		for msg := range pubsub.Channel() {
			handler(decodeQueueEvent(msg.Payload))
		}
	}()
}

// Close tears down all subscriptions and the connection.
func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	for _, ps := range n.pubsubs {
		if err := ps.Close(); err != nil {
			logging.Log.Warn("closing pubsub subscription", zap.Error(err))
		}
	}
	n.pubsubs = nil
	n.mu.Unlock()
	return n.client.Close()
}

// InMemoryNotifier is a process-local QueueNotifier used by tests and
// single-node deployments without redis.
type InMemoryNotifier struct {
	mu       sync.RWMutex
	handlers map[string][]func(QueueEvent)
}

// NewInMemoryNotifier creates an empty in-process notifier.
func NewInMemoryNotifier() *InMemoryNotifier {
	return &InMemoryNotifier{handlers: make(map[string][]func(QueueEvent))}
}

// Emit dispatches synchronously to the registered handlers.
func (n *InMemoryNotifier) Emit(_ context.Context, event string, payload QueueEvent) error {
	n.mu.RLock()
	handlers := append([]func(QueueEvent){}, n.handlers[event]...)
	n.mu.RUnlock()
	for _, h := range handlers {
		h(payload)
	}
	return nil
}

// Subscribe registers a handler for one event name.
func (n *InMemoryNotifier) Subscribe(event string, handler func(QueueEvent)) {
	n.mu.Lock()
	n.handlers[event] = append(n.handlers[event], handler)
	n.mu.Unlock()
}

// Close drops all handlers.
func (n *InMemoryNotifier) Close() error {
	n.mu.Lock()
	n.handlers = make(map[string][]func(QueueEvent))
	n.mu.Unlock()
	return nil
}
