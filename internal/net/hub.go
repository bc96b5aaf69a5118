package net

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"RevealBoard/internal/state"
)

type MessageType string

const (
	MessageHello   MessageType = "hello"
	MessageReady   MessageType = "ready"
	MessageRestart MessageType = "restart"
	MessageStrokes MessageType = "strokes"
)

// Message is one JSON frame on the feed websocket.
type Message struct {
	Type    MessageType    `json:"type"`
	Status  *state.Status  `json:"status,omitempty"`
	Restart *state.Restart `json:"restart,omitempty"`
	Strokes []state.Stroke `json:"strokes,omitempty"`
}

const (
	defaultFlushInterval = 50 * time.Millisecond
	clientBuffer         = 64
	writeWait            = 5 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub fans engine events out to websocket viewers. Strokes are queued and
// sent in batches; other messages flush the queue first so viewers see
// events in engine order.
type Hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader
	interval time.Duration

	mu      sync.RWMutex
	clients map[*client]bool

	qmu     sync.Mutex
	pending []state.Stroke

	// smu orders taking a batch and sending it against other sends.
	smu sync.Mutex

	// Hello builds the greeting for a new viewer. Optional.
	Hello func() *state.Status
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		logger:   logger,
		interval: defaultFlushInterval,
		clients:  make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("viewer connected", "addr", c.conn.RemoteAddr().String(), "viewers", n)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		c.close()
		h.logger.Info("viewer disconnected", "addr", c.conn.RemoteAddr().String(), "viewers", n)
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// QueueStroke adds a stroke to the next batch.
func (h *Hub) QueueStroke(s state.Stroke) {
	h.qmu.Lock()
	h.pending = append(h.pending, s)
	h.qmu.Unlock()
}

// Broadcast flushes queued strokes and then sends msg to every viewer.
func (h *Hub) Broadcast(msg Message) {
	h.smu.Lock()
	defer h.smu.Unlock()
	h.flush()
	h.send(msg)
}

// Flush sends the queued strokes as one message.
func (h *Hub) Flush() {
	h.smu.Lock()
	defer h.smu.Unlock()
	h.flush()
}

func (h *Hub) flush() {
	h.qmu.Lock()
	batch := h.pending
	h.pending = nil
	h.qmu.Unlock()
	if len(batch) > 0 {
		h.send(Message{Type: MessageStrokes, Strokes: batch})
	}
}

func (h *Hub) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode feed message", "type", msg.Type, "err", err)
		return
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
		h.logger.Warn("dropping slow viewer", "addr", c.conn.RemoteAddr().String())
		h.remove(c)
	}
}

// Run flushes queued strokes periodically until ctx is done, then closes
// every connection.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			h.Flush()
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				c.close()
			}
			h.mu.Unlock()
			return
		}
	}
}

// ServeHTTP upgrades the request to a websocket viewer connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	hello := Message{Type: MessageHello}
	if h.Hello != nil {
		hello.Status = h.Hello()
	}
	if data, err := json.Marshal(hello); err == nil {
		c.send <- data
	}

	h.add(c)
	go h.writePump(c)
	h.readPump(c)
}

// readPump discards viewer input and notices when the viewer goes away.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("feed write failed", "addr", c.conn.RemoteAddr().String(), "err", err)
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
