package api

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"wave-arena/internal/codec"
	"wave-arena/internal/game"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// DefaultInputRate and DefaultInputBurst bound inbound messages per connection
	DefaultInputRate  = 120
	DefaultInputBurst = 240

	sendBufferSize = 64
	maxMessageSize = 4096
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Use the centralized origin checker
		if IsAllowedOrigin(origin) {
			return true
		}

		// Log rejected origin for security monitoring
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// SessionManager is the part of the engine a connection talks to
type SessionManager interface {
	Join() (game.JoinTicket, error)
	Leave(playerID string)
	SetInput(playerID string, in game.Input)
}

// HubConfig tunes per-connection limits
type HubConfig struct {
	InputRate  float64 // inbound messages per second per connection
	InputBurst int
	TrustProxy bool // account sockets to X-Forwarded-For / X-Real-IP
}

// wsClient is one connection and the player it controls
type wsClient struct {
	hub      *WebSocketHub
	conn     *websocket.Conn
	ip       string
	playerID string
	codec    codec.Codec
	gate     *InputGate

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// WebSocketHub owns every player connection. Each connection gets a buffered
// send queue drained by its own write pump, so a slow client only loses its
// own messages.
type WebSocketHub struct {
	sessions SessionManager
	config   HubConfig

	clients map[*wsClient]struct{}
	mu      sync.RWMutex
	closed  bool

	slots  *ConnectionSlots
	inputs inputCounters
}

// NewWebSocketHub creates a hub that joins players into sessions
func NewWebSocketHub(sessions SessionManager, cfg HubConfig) *WebSocketHub {
	if cfg.InputRate <= 0 {
		cfg.InputRate = DefaultInputRate
	}
	if cfg.InputBurst <= 0 {
		cfg.InputBurst = DefaultInputBurst
	}
	return &WebSocketHub{
		sessions:  sessions,
		config:    cfg,
		clients:   make(map[*wsClient]struct{}),
		slots:     NewConnectionSlots(MaxWSConnectionsPerIP),
	}
}

// Broadcast encodes msg once per codec in use and queues it on every open
// connection. Connections with a full queue skip this message, as do those
// whose codec cannot encode it.
func (h *WebSocketHub) Broadcast(msg interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	encoded := make(map[string][]byte, 2)
	for c := range h.clients {
		name := c.codec.Name()
		data, ok := encoded[name]
		if !ok {
			var err error
			data, err = c.codec.Encode(msg)
			if err != nil {
				log.Printf("⚠️ Broadcast encode failed (%s): %v", name, err)
			}
			// nil marks the codec as failed for the rest of this broadcast
			encoded[name] = data
		}
		if data == nil {
			RecordWSDropped("encode")
			continue
		}

		select {
		case c.send <- data:
		default:
			RecordWSDropped("buffer_full")
		}
	}
	IncrementWSMessages()
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// InputStats reports how inbound input has been handled since start
func (h *WebSocketHub) InputStats() InputStats {
	return h.inputs.stats()
}

// Close disconnects every client and refuses new ones
func (h *WebSocketHub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// HandleWebSocket upgrades a connection and joins it to the arena as a new player
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Get client IP for rate limiting
	ip := ClientIP(r, h.config.TrustProxy)

	// Check total connection limit
	h.mu.RLock()
	totalConnections := len(h.clients)
	closed := h.closed
	h.mu.RUnlock()

	if closed {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}
	if totalConnections >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", totalConnections)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	// Check per-IP connection limit
	if !h.slots.Acquire(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.slots.Release(ip)
		return
	}

	ticket, err := h.sessions.Join()
	if err != nil {
		reason := "join failed"
		if errors.Is(err, game.ErrArenaFull) {
			reason = "arena full"
			RecordConnectionRejected("arena_full")
		}
		log.Printf("⚠️ Player rejected from %s: %v", ip, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
			time.Now().Add(writeWait))
		conn.Close()
		h.slots.Release(ip)
		return
	}

	c := &wsClient{
		hub:      h,
		conn:     conn,
		ip:       ip,
		playerID: ticket.PlayerID,
		codec:    codec.ForName(r.URL.Query().Get("codec")),
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
	c.gate = newInputGate(h.config.InputRate, h.config.InputBurst, &h.inputs, func(in game.Input) {
		h.sessions.SetInput(c.playerID, in)
	})

	// Welcome is queued before registration so it precedes any broadcast
	welcome, err := c.codec.Encode(game.WelcomeMessage{
		Type:     game.MsgWelcome,
		PlayerID: ticket.PlayerID,
		ColorIdx: ticket.ColorIdx,
	})
	if err != nil {
		log.Printf("⚠️ Welcome encode failed: %v", err)
		h.sessions.Leave(ticket.PlayerID)
		conn.Close()
		h.slots.Release(ip)
		return
	}
	c.send <- welcome

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.sessions.Leave(ticket.PlayerID)
		conn.Close()
		h.slots.Release(ip)
		return
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("📱 %s connected from %s via %s (%d total)", c.playerID, ip, c.codec.Name(), count)
	UpdateWSConnections(count)

	go c.writePump()
	go c.readPump()
}

// unregister removes a client and frees its player and IP slot. Idempotent.
func (h *WebSocketHub) unregister(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.gate.Close()
	h.slots.Release(c.ip)
	h.sessions.Leave(c.playerID)

	log.Printf("📱 %s disconnected (%d remaining)", c.playerID, count)
	UpdateWSConnections(count)
}

// close asks the write pump to say goodbye and drop the socket
func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump decodes inbound frames into input updates until the socket fails
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error for %s: %v", c.playerID, err)
			}
			return
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			c.hub.inputs.invalid.Add(1)
			RecordWSDropped("invalid")
			continue
		}
		c.gate.Submit(msg.Input)
	}
}

// writePump is the only writer on the connection. Closing the socket on
// exit also unblocks readPump.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(frameType, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
