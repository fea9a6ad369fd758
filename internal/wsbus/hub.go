package wsbus

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub maintains a set of subscribed websocket clients and fans out
// broadcast messages to all of them. The indexer runs one Hub for its
// deposit and pushed-root events; the relay does not use one.
type Hub struct {
	log       *zap.Logger
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mu        sync.Mutex
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:       log,
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
}

// Run drains the broadcast channel until it is closed. Callers start
// it in its own goroutine at service startup.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mu.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				h.log.Debug("websocket write failed, dropping client", zap.Error(err))
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mu.Unlock()
	}
}

// Subscribe upgrades the request to a websocket connection and
// registers it for broadcasts.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Info("websocket client connected", zap.Int("clients", count))

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			count := len(h.clients)
			h.mu.Unlock()
			conn.Close()
			h.log.Info("websocket client disconnected", zap.Int("clients", count))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.log.Debug("websocket read error", zap.Error(err))
				}
				break
			}
		}
	}()
}

// Broadcast sends a pre-encoded message to every connected client.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}

// Close stops accepting new broadcasts. Callers must not call
// Broadcast after Close.
func (h *Hub) Close() {
	close(h.broadcast)
}
