package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type       string `json:"type"`
	ElectionID string `json:"election_id"`
	Data       any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action     string `json:"action"` // "subscribe" or "unsubscribe"
	ElectionID string `json:"election_id"`
}

// WSConn wraps a WebSocket connection with its identity and send buffer.
type WSConn struct {
	conn    *websocket.Conn
	userID  string
	partyID string
	send    chan []byte
}

// Hub manages WebSocket connections and election-channel subscriptions.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	elections   map[string]map[*WSConn]bool // electionID -> set of connections
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		elections:   make(map[string]map[*WSConn]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	delete(h.connections, c)
	for id, conns := range h.elections {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.elections, id)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to an election channel.
func (h *Hub) Subscribe(c *WSConn, electionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.elections[electionID] == nil {
		h.elections[electionID] = make(map[*WSConn]bool)
	}
	h.elections[electionID][c] = true
}

// Unsubscribe removes a connection from an election channel.
func (h *Hub) Unsubscribe(c *WSConn, electionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.elections[electionID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.elections, electionID)
		}
	}
}

// BroadcastToElection sends an event to all connections subscribed to an election.
func (h *Hub) BroadcastToElection(electionID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("electionId", electionID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.elections[electionID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("userId", c.userID).Str("electionId", electionID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// BroadcastElectionEvent implements service.Broadcaster.
func (h *Hub) BroadcastElectionEvent(electionID string, eventType string, data any) {
	h.BroadcastToElection(electionID, WSEvent{
		Type:       eventType,
		ElectionID: electionID,
		Data:       data,
	})
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// SubscriberCount returns the number of connections subscribed to an election.
func (h *Hub) SubscriberCount(electionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.elections[electionID])
}
