package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/deisterstuff/investment/internal/optimizer"
	"github.com/deisterstuff/investment/internal/portfolio"
	"github.com/deisterstuff/investment/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// SelectionEvent is pushed to websocket subscribers after every run
type SelectionEvent struct {
	Type      string                  `json:"type"` // "selection"
	RunID     string                  `json:"run_id"`
	Profile   string                  `json:"profile"`
	Trigger   optimizer.Trigger       `json:"trigger"`
	Tickers   []string                `json:"tickers"`
	Sharpe    portfolio.BestPortfolio `json:"sharpe"`
	Sortino   portfolio.BestPortfolio `json:"sortino"`
	MinVol    portfolio.BestPortfolio `json:"min_vol"`
	CreatedAt time.Time               `json:"created_at"`
}

// Hub fans selection events out to websocket clients
// ⭐ SSOT: 웹소켓 연결 관리는 여기서만
type Hub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new hub
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish implements optimizer.Publisher. Slow clients drop events.
func (h *Hub) Publish(run *optimizer.Run) {
	if run == nil || run.Selection == nil {
		return
	}

	data, err := json.Marshal(SelectionEvent{
		Type:      "selection",
		RunID:     run.ID,
		Profile:   run.Profile,
		Trigger:   run.Trigger,
		Tickers:   run.Selection.Tickers,
		Sharpe:    run.Selection.Sharpe,
		Sortino:   run.Selection.Sortino,
		MinVol:    run.Selection.MinVol,
		CreatedAt: run.CreatedAt,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal selection event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Websocket client buffer full, event dropped")
		}
	}
}

// ServeWS upgrades the request and registers the client
// GET /ws/selections
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(c)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump 클라이언트 메시지는 무시, 연결 종료 감지용
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
