package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS middleware in front of the upgrade
		return true
	},
}

// Event is the wire format pushed to connected dashboard clients.
type Event struct {
	Type      string       `json:"type"`
	Order     *model.Order `json:"order,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Hub broadcasts order events to all connected admin dashboard clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
	}
}

// Run processes register, unregister and broadcast events.
// It must run in its own goroutine for the lifetime of the server.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			logger.Info("Dashboard client connected", map[string]interface{}{
				"user_id":       client.userID,
				"total_clients": len(h.clients),
			})

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				logger.Info("Dashboard client disconnected", map[string]interface{}{
					"user_id":       client.userID,
					"total_clients": len(h.clients),
				})
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than block the hub
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// PublishOrderPlaced pushes a newly placed order to every connected client.
func (h *Hub) PublishOrderPlaced(order *model.Order) {
	payload, err := json.Marshal(Event{
		Type:      "order_placed",
		Order:     order,
		Timestamp: time.Now(),
	})
	if err != nil {
		logger.Error("Failed to marshal order event", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		logger.Warn("Order event dropped, broadcast buffer full", map[string]interface{}{
			"order_id": order.ID,
		})
	}
}

// HandleConnection upgrades the HTTP request and attaches the client to the hub.
func (h *Hub) HandleConnection(c *gin.Context, userID uint) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 16),
		userID: userID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
