// Package hub fans messages out to connected realtime subscribers. The hub
// owns the connection registry: it is constructed once per running service
// and handed to request handlers explicitly.
package hub

import (
	"log/slog"
	"sync"

	"threatwatch/internal/metrics"
)

// Envelope is the JSON message shape pushed to subscribers.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	TypeThreatAlert   = "threat_alert"
	TypeNotification  = "notification"
	TypeSystemMessage = "system_message"
	TypePong          = "pong"
	TypeError         = "error"
)

// Conn is the transport handle for one subscriber. *websocket.Conn satisfies
// it.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// subscriber serializes writes to its connection so concurrent broadcasts
// cannot interleave frames.
type subscriber struct {
	conn Conn
	mu   sync.Mutex
}

func (s *subscriber) write(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(env)
}

// Hub maps subscriber identities to live connections, one per identity. All
// registry mutation goes through the hub; a failed delivery removes the
// subscriber and delivery to the rest continues.
type Hub struct {
	mu   sync.Mutex
	subs map[string]*subscriber
}

func New() *Hub {
	return &Hub{subs: make(map[string]*subscriber)}
}

// Connect registers conn under id. A reconnect for an already-registered
// identity replaces and closes the previous connection.
func (h *Hub) Connect(id string, conn Conn) {
	h.mu.Lock()
	prev := h.subs[id]
	h.subs[id] = &subscriber{conn: conn}
	h.mu.Unlock()

	if prev != nil {
		prev.conn.Close()
	} else {
		metrics.HubConnections.Inc()
	}
	slog.Info("subscriber connected", "id", id)
}

// Disconnect removes id from the registry. It is idempotent: disconnecting
// an unknown identity is a no-op.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
		metrics.HubConnections.Dec()
		slog.Info("subscriber disconnected", "id", id)
	}
}

// DisconnectConn removes id only while it is still registered with conn. A
// read loop whose connection was replaced by a reconnect exits through here
// without touching the fresh registration.
func (h *Hub) DisconnectConn(id string, conn Conn) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok && sub.conn == conn {
		delete(h.subs, id)
	} else {
		ok = false
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
		metrics.HubConnections.Dec()
		slog.Info("subscriber disconnected", "id", id)
	}
}

// Send delivers env to exactly one subscriber, silently dropping the message
// when the identity is not registered. A write failure deregisters the
// subscriber.
func (h *Hub) Send(id string, env Envelope) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	h.mu.Unlock()
	if !ok {
		return
	}
	if err := sub.write(env); err != nil {
		metrics.HubSendFailures.WithLabelValues("send").Inc()
		h.remove(id, sub)
	}
}

// Broadcast delivers env to every registered subscriber other than exceptID.
// The target set is snapshotted first so a concurrent connect or disconnect
// cannot corrupt an in-flight broadcast.
func (h *Hub) Broadcast(env Envelope, exceptID string) {
	for id, sub := range h.snapshot() {
		if id == exceptID {
			continue
		}
		if err := sub.write(env); err != nil {
			metrics.HubSendFailures.WithLabelValues("broadcast").Inc()
			h.remove(id, sub)
		}
	}
}

// NotifyThreat wraps payload in a threat_alert envelope and delivers it to
// all subscribers unconditionally.
func (h *Hub) NotifyThreat(payload any) {
	h.Broadcast(Envelope{Type: TypeThreatAlert, Data: payload}, "")
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close tears down every registered connection.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*subscriber)
	h.mu.Unlock()

	for range subs {
		metrics.HubConnections.Dec()
	}
	for _, sub := range subs {
		sub.conn.Close()
	}
}

func (h *Hub) snapshot() map[string]*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]*subscriber, len(h.subs))
	for id, sub := range h.subs {
		out[id] = sub
	}
	return out
}

// remove deregisters id only if it still maps to the same subscriber; a
// reconnect that raced the failed write keeps its fresh connection.
func (h *Hub) remove(id string, sub *subscriber) {
	h.mu.Lock()
	current, ok := h.subs[id]
	if ok && current == sub {
		delete(h.subs, id)
	} else {
		ok = false
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
		metrics.HubConnections.Dec()
		slog.Warn("subscriber dropped after failed delivery", "id", id)
	}
}
