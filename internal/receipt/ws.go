package receipt

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/aurahealth/aura-backend/internal/assistant"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The REST API already allows any origin, the socket follows suit.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks live assistant connections
type Hub struct {
	mu      sync.Mutex
	service *Service
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a new Hub
func NewHub(service *Service) *Hub {
	return &Hub{
		service: service,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// wsMessage is the envelope for messages in both directions
type wsMessage struct {
	Type     string              `json:"type"`
	Message  string              `json:"message,omitempty"`
	Text     string              `json:"text,omitempty"`
	Messages []assistant.Message `json:"messages,omitempty"`
	Record   *Record             `json:"record,omitempty"`
}

// Broadcast pushes a message to every connected client. Write failures are
// logged and skipped; the failing client's read loop will notice and drop it.
func (h *Hub) Broadcast(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Error marshaling broadcast message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("Error broadcasting to client", "error", err)
		}
	}
}

// send writes one message to a single client. The hub mutex serializes writes
// so a broadcast and a reply never write to the same connection concurrently.
func (h *Hub) send(conn *websocket.Conn, msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Error marshaling websocket message", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Warn("Error writing websocket message", "error", err)
	}
}

// handleWebSocket upgrades the connection and runs the live assistant loop
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Error upgrading websocket", "error", err)
		return
	}

	s.hub.register(conn)
	defer s.hub.unregister(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Websocket closed unexpectedly", "error", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.hub.send(conn, wsMessage{Type: "error", Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "setup":
			s.hub.send(conn, wsMessage{Type: "setup_complete", Message: "WebSocket connection established"})
		case "chat":
			reply, err := s.service.Chat(r.Context(), msg.Messages)
			if err != nil {
				s.hub.send(conn, wsMessage{Type: "error", Message: err.Error()})
				continue
			}
			s.hub.send(conn, wsMessage{Type: "text_response", Text: reply})
		default:
			s.hub.send(conn, wsMessage{Type: "error", Message: "Unknown message type: " + msg.Type})
		}
	}
}
