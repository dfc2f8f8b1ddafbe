package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"threatwatch/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser client connects cross-origin from the dashboard.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is what subscribers send upstream.
type clientMessage struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// handleWebSocket upgrades the connection, registers it with the hub, and
// runs the read loop until the subscriber goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "user_id", userID, "err", err)
		return
	}

	s.hub.Connect(userID, conn)
	// Scoped to this connection: if the identity reconnects, the replacement
	// registers itself and this handler must not tear it down on exit.
	defer s.hub.DisconnectConn(userID, conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.hub.Send(userID, hub.Envelope{Type: hub.TypeError, Data: map[string]string{"message": "invalid JSON"}})
			continue
		}

		switch msg.Type {
		case "ping":
			s.hub.Send(userID, hub.Envelope{Type: hub.TypePong})
		case "subscribe_threats":
			s.hub.Send(userID, hub.Envelope{Type: hub.TypeSystemMessage, Data: map[string]string{
				"subscribed": "threats",
			}})
		default:
			// Anything else is relayed to the other subscribers.
			s.hub.Broadcast(hub.Envelope{Type: hub.TypeSystemMessage, Data: msg}, userID)
		}
	}
}
