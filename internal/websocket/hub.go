// Package websocket implements the live feed pushed to browsers over websockets.
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/murmur/internal/metrics"
)

// Hub maintains the set of active clients and broadcasts messages to them.
// All client bookkeeping happens on the goroutine running Run.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound messages for every client.
	broadcast chan []byte

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Replies addressed to a single client.
	direct chan envelope

	done     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}
}

type envelope struct {
	client  *Client
	message []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan envelope),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			metrics.FeedClients.Inc()
			log.Debug().Int("total_clients", len(h.clients)).Msg("Feed client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				log.Debug().Int("total_clients", len(h.clients)).Msg("Feed client disconnected")
			}
		case e := <-h.direct:
			if _, ok := h.clients[e.client]; ok {
				select {
				case e.client.Send <- e.message:
				default:
					h.remove(e.client)
				}
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Slow consumer; drop it rather than stall the feed.
					h.remove(client)
				}
			}
		case <-h.done:
			for client := range h.clients {
				h.remove(client)
			}
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	metrics.FeedClients.Dec()
}

// Stop terminates Run, which closes every client's send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Wait blocks until Run has returned.
func (h *Hub) Wait() {
	<-h.stopped
}

// Register adds client to the hub. It reports false when the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client from the hub and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish broadcasts an action with its payload to every connected client.
func (h *Hub) Publish(action string, payload any) {
	message, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode feed message")
		return
	}
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Reply sends message to a single registered client.
// Only the hub writes to Send, so replies never race with the channel being closed.
func (h *Hub) Reply(client *Client, message []byte) {
	select {
	case h.direct <- envelope{client: client, message: message}:
	case <-h.done:
	}
}
