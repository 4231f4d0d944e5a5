// Package stream fans each day's composed journey report out to websocket
// subscribers, mirrored over redis so every instance sees every report.
package stream

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Hub struct {
	redis   *redis.Client
	log     *zap.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	JourneyID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client, log *zap.Logger) *Hub {
	h := &Hub{
		redis:   redisClient,
		log:     log,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(journeyID string) *Client {
	client := &Client{
		JourneyID: journeyID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[journeyID] == nil {
		h.clients[journeyID] = map[*Client]struct{}{}
	}
	h.clients[journeyID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if journeyClients, ok := h.clients[client.JourneyID]; ok {
		delete(journeyClients, client)
		if len(journeyClients) == 0 {
			delete(h.clients, client.JourneyID)
		}
	}
	close(client.Send)
}

// Broadcast delivers a day report to local subscribers and publishes it for
// other instances.
func (h *Hub) Broadcast(journeyID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[journeyID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(journeyID), payload).Err()
		if err != nil {
			h.log.Warn("redis publish failed", zap.Error(err))
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "journey:*:reports")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		journeyID := journeyIDFromChannel(msg.Channel)
		h.mu.RLock()
		clients := h.clients[journeyID]
		h.mu.RUnlock()
		for client := range clients {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
	}
}

func redisChannel(journeyID string) string {
	return "journey:" + journeyID + ":reports"
}

func journeyIDFromChannel(ch string) string {
	// journey:{id}:reports
	const prefix = "journey:"
	const suffix = ":reports"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
