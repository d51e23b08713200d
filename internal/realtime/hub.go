package realtime

import (
	"context"

	"github.com/rs/zerolog"
)

// Hub manages WebSocket clients and routes messages by runID.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// runID -> set of subscribed clients
	subscriptions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscribeMsg
	broadcast  chan broadcastMsg
	done       chan struct{}

	logger zerolog.Logger
}

type subscribeMsg struct {
	client *Client
	runID  string
}

type broadcastMsg struct {
	runID   string
	payload []byte
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan subscribeMsg),
		broadcast:     make(chan broadcastMsg, 256),
		done:          make(chan struct{}),
		logger:        logger,
	}
}

// Broadcast queues payload for every client subscribed to runID.
func (h *Hub) Broadcast(runID string, payload []byte) {
	select {
	case h.broadcast <- broadcastMsg{runID: runID, payload: payload}:
	case <-h.done:
	}
}

// send hands msg to the Run loop unless the hub has stopped.
func send[T any](h *Hub, ch chan T, msg T) {
	select {
	case ch <- msg:
	case <-h.done:
	}
}

// Run serves the hub until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.subscriptions = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug().Int("clients", len(h.clients)).Msg("Client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug().Int("clients", len(h.clients)).Msg("Client unregistered")
			}

		case msg := <-h.subscribe:
			if _, ok := h.clients[msg.client]; !ok {
				continue
			}
			if _, ok := h.subscriptions[msg.runID]; !ok {
				h.subscriptions[msg.runID] = make(map[*Client]bool)
			}
			h.subscriptions[msg.runID][msg.client] = true
			h.logger.Debug().Str("runId", msg.runID).Int("subscribers", len(h.subscriptions[msg.runID])).Msg("Client subscribed to run")

		case msg := <-h.broadcast:
			for client := range h.subscriptions[msg.runID] {
				select {
				case client.send <- msg.payload:
				default:
					// Client buffer full, remove it
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	for runID, subs := range h.subscriptions {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, runID)
		}
	}
}
