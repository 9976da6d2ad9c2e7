// Package feed pushes processed games to websocket subscribers.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/matchup-engine/internal/engine"
	"github.com/yourusername/matchup-engine/internal/metrics"
	"github.com/yourusername/matchup-engine/internal/models"
)

// MessageTypeGameProcessed tags a processed game message
const MessageTypeGameProcessed = "game_processed"

const (
	sendBuffer = 256
	writeWait  = 10 * time.Second
)

// ModelPrediction is one model's view of a game on the wire
type ModelPrediction struct {
	Model string `json:"model"`
	models.Prediction
	Hit bool `json:"hit"`
}

// Message is the payload sent to subscribers
type Message struct {
	Type        string                 `json:"type"`
	RunID       string                 `json:"run_id"`
	GameID      int64                  `json:"game_id"`
	AwayID      models.CompetitorID    `json:"away_id"`
	HomeID      models.CompetitorID    `json:"home_id"`
	Actual      models.Outcome         `json:"actual"`
	Predictions []ModelPrediction      `json:"predictions"`
	Accuracy    []engine.ModelAccuracy `json:"accuracy"`
	Timestamp   int64                  `json:"timestamp"`
}

// NewGameMessage converts an orchestrator result into a feed message
func NewGameMessage(result engine.GameResult) *Message {
	preds := make([]ModelPrediction, 0, len(result.Predictions))
	for i, p := range result.Predictions {
		name := ""
		if i < len(result.Accuracy) {
			name = result.Accuracy[i].Model
		}
		preds = append(preds, ModelPrediction{Model: name, Prediction: p, Hit: result.Hits[i]})
	}
	return &Message{
		Type:        MessageTypeGameProcessed,
		RunID:       result.RunID.String(),
		GameID:      result.Game.ID,
		AwayID:      result.Game.AwayID,
		HomeID:      result.Game.HomeID,
		Actual:      result.Actual,
		Predictions: preds,
		Accuracy:    result.Accuracy,
		Timestamp:   time.Now().Unix(),
	}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans processed games out to connected websocket clients
type Hub struct {
	clients    map[*client]bool
	broadcast  chan *Message
	register   chan *client
	unregister chan *client
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     *logrus.Entry
	mu         sync.RWMutex
}

// NewHub creates a new hub. allowedOrigins empty accepts every origin.
func NewHub(allowedOrigins []string, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan *Message, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(origins) == 0 || origins["*"] || origins[r.Header.Get("Origin")]
			},
		},
		logger: logger.WithField("component", "feed"),
	}
}

// Run dispatches registrations and broadcasts until ctx is done. Call it once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			metrics.UpdateFeedClients(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			metrics.UpdateFeedClients(n)
			h.logger.WithField("clients", n).Debug("Client registered")

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.WithError(err).Error("Failed to marshal feed message")
				continue
			}
			h.mu.RLock()
			var slow []*client
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.UpdateFeedClients(n)
	h.logger.WithField("clients", n).Debug("Client unregistered")
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OnGameProcessed queues the game for broadcast. It never blocks the orchestrator;
// when the queue is full the message is dropped.
func (h *Hub) OnGameProcessed(result engine.GameResult) {
	select {
	case h.broadcast <- NewGameMessage(result):
	default:
		h.logger.WithField("game_id", result.Game.ID).Warn("Feed queue full, dropping message")
	}
}

// ServeWS upgrades the request and registers the connection
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump drains client frames so close and ping control frames are handled
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Warn("WebSocket read error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
