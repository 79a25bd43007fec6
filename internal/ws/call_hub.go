package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Client is a single WebSocket connection with user context.
type Client struct {
	UserID uint
	Role   string
	Send   chan []byte
	Hub    *CallHub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
}

// CallHub pushes call status transitions to the connected participants so the
// app can update the in-call screen without polling.
type CallHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// userID -> clients (one user can have multiple connections)
	byUser map[uint]map[*Client]struct{}
}

func NewCallHub() *CallHub {
	return &CallHub{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[uint]map[*Client]struct{}),
	}
}

func (h *CallHub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	h.clients[c] = struct{}{}
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
}

func (h *CallHub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

// CallUpdate is the message pushed on every session transition.
type CallUpdate struct {
	Type            string `json:"type"`
	SessionID       uint   `json:"session_id"`
	ProviderCallID  string `json:"provider_call_id"`
	Status          string `json:"status"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	At              string `json:"at"`
}

// NotifyCallStatus pushes the transition to both participants. Slow clients
// are skipped rather than blocked on.
func (h *CallHub) NotifyCallStatus(callerID, receiverID, sessionID uint, providerCallID, status string, durationSeconds int) {
	update := CallUpdate{
		Type:            "call_status",
		SessionID:       sessionID,
		ProviderCallID:  providerCallID,
		Status:          status,
		DurationSeconds: durationSeconds,
		At:              time.Now().UTC().Format(time.RFC3339),
	}
	h.BroadcastToUser(callerID, update)
	h.BroadcastToUser(receiverID, update)
}

func (h *CallHub) BroadcastToUser(userID uint, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	m := h.byUser[userID]
	if m == nil {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (h *CallHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
