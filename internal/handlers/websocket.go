package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/audile/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocketHandler pushes analysis and playback events to connected
// clients so the UI can track progress without polling.
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	eventService     interfaces.EventService
	serverInstanceID string // Unique ID generated on startup - clients use to detect server restart
}

// wsMessage is the envelope every broadcast uses.
type wsMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized with server instance ID")

	return h
}

// RegisterEventHandlers subscribes the handler to every event type the
// services publish. Call once during startup.
func (h *WebSocketHandler) RegisterEventHandlers() error {
	types := []interfaces.EventType{
		interfaces.EventAnalysisStarted,
		interfaces.EventAnalysisCompleted,
		interfaces.EventAnalysisFailed,
		interfaces.EventPlaybackLoading,
		interfaces.EventPlaybackStarted,
		interfaces.EventPlaybackStopped,
	}

	for _, eventType := range types {
		if err := h.eventService.Subscribe(eventType, h.handleEvent); err != nil {
			return err
		}
	}

	h.logger.Debug().Int("event_types", len(types)).Msg("WebSocket event handlers registered")
	return nil
}

func (h *WebSocketHandler) handleEvent(ctx context.Context, event interfaces.Event) error {
	h.Broadcast(string(event.Type), event.Payload)
	return nil
}

// HandleWebSocket upgrades the connection and keeps it registered until
// the client disconnects.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().Int("clients", clientCount).Msg("WebSocket client connected")

	h.sendTo(conn, wsMessage{
		Type:      "connected",
		Payload:   map[string]string{"serverInstanceId": h.serverInstanceID},
		Timestamp: time.Now().Format(time.RFC3339),
	})

	// Read loop exists only to detect disconnects; inbound messages are
	// ignored.
	go func() {
		defer h.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends an event to every connected client.
func (h *WebSocketHandler) Broadcast(eventType string, payload interface{}) {
	msg := wsMessage{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.sendTo(conn, msg)
	}
}

func (h *WebSocketHandler) sendTo(conn *websocket.Conn, msg wsMessage) {
	h.mu.RLock()
	connMu, ok := h.clientMutex[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	connMu.Lock()
	err := conn.WriteJSON(msg)
	connMu.Unlock()

	if err != nil {
		h.logger.Debug().Err(err).Msg("WebSocket write failed - removing client")
		h.removeClient(conn)
	}
}

func (h *WebSocketHandler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		conn.Close()
	}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().Int("clients", clientCount).Msg("WebSocket client disconnected")
}

// Close disconnects all clients.
func (h *WebSocketHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
	h.clientMutex = make(map[*websocket.Conn]*sync.Mutex)
}
