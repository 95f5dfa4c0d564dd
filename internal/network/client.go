package network

import (
	"encoding/json"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// Minimum time between two filter changes from the same spectator.
	filterCooldown = time.Second
)

// Filter selects which events a spectator receives. Empty fields match everything.
type Filter struct {
	RunID string             `json:"run_id,omitempty"`
	Actor string             `json:"actor,omitempty"`
	Types []events.EventType `json:"types,omitempty"`
}

// FilterFromQuery reads run, actor and (repeatable) type parameters.
func FilterFromQuery(q url.Values) Filter {
	f := Filter{RunID: q.Get("run"), Actor: q.Get("actor")}
	for _, t := range q["type"] {
		f.Types = append(f.Types, events.EventType(t))
	}
	return f
}

// Match reports whether e passes the filter.
func (f Filter) Match(e events.GameEvent) bool {
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if f.Actor != "" && e.ActorID != f.Actor {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.Type) {
		return false
	}
	return true
}

// SpectatorCommand is an incoming message from a spectator.
type SpectatorCommand struct {
	Type   string `json:"type"` // "SUBSCRIBE"
	Filter Filter `json:"filter"`
}

// Client is one spectator connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu               sync.Mutex
	filter           Filter
	lastFilterChange time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn, filter Filter) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		filter: filter,
	}
}

// Filter returns the spectator's current filter.
func (c *Client) Filter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Register adds the client to the hub. A stopped hub closes the connection instead.
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		c.conn.Close()
	}
}

// ReadPump reads spectator commands until the connection drops.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Spectator connection closed unexpectedly: " + err.Error())
			}
			break
		}

		var cmd SpectatorCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warn("Failed to parse spectator command: " + err.Error())
			continue
		}
		c.handleCommand(cmd)
	}
}

func (c *Client) handleCommand(cmd SpectatorCommand) {
	switch cmd.Type {
	case "SUBSCRIBE":
		c.mu.Lock()
		defer c.mu.Unlock()
		if time.Since(c.lastFilterChange) < filterCooldown {
			c.hub.logger.Warn("Spectator changed filter too quickly; ignored")
			return
		}
		c.lastFilterChange = time.Now()
		c.filter = cmd.Filter
	default:
		c.hub.logger.Warn("Unknown spectator command: " + cmd.Type)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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
