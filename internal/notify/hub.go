// Package notify fans ride events out to connected websocket clients.
package notify

import (
	"context"
	"encoding/json"
	"sync"

	"rideshare/internal/domain"
	"rideshare/internal/logger"
)

// Message is the envelope written to websocket clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub maintains active client connections and routes messages to them.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *logger.Logger
}

// NewHub creates a new Hub. Call Run before registering clients.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("websocket client registered",
				logger.String("client_id", client.ID),
				logger.String("user_id", client.Principal.UserID),
				logger.String("role", string(client.Principal.Role)),
			)

		case client := <-h.unregister:
			h.remove(client)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a client to the hub. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.Debug("websocket client unregistered", logger.String("client_id", client.ID))
	}
}

// SendToUser delivers msg to every connection opened by userID.
// It returns the number of connections the message was queued on.
func (h *Hub) SendToUser(userID string, msg Message) int {
	return h.deliver(msg, func(c *Client) bool { return c.Principal.UserID == userID })
}

// BroadcastToRole delivers msg to every connection whose principal has role.
func (h *Hub) BroadcastToRole(role domain.Role, msg Message) int {
	return h.deliver(msg, func(c *Client) bool { return c.Principal.Role == role })
}

// ActiveConnections returns the number of registered clients.
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(msg Message, match func(*Client) bool) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", logger.Err(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients {
		if !match(client) {
			continue
		}
		select {
		case client.send <- data:
			sent++
		default:
			h.logger.Warn("websocket send buffer full, dropping message",
				logger.String("client_id", client.ID),
				logger.String("type", msg.Type),
			)
		}
	}
	return sent
}
