package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/logger"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/metrics"
)

// DefaultPollInterval is how often the poller checks the event log.
const DefaultPollInterval = 200 * time.Millisecond

// EventSource is the part of the event log the hub reads.
type EventSource interface {
	After(seq int64) []events.GameEvent
}

type outbound struct {
	event events.GameEvent
	data  []byte
}

// Hub maintains the set of active spectators and broadcasts events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	logger     *logger.Logger
	metrics    *metrics.Collector
}

// NewHub initializes a new WebSocket Hub.
func NewHub(log *logger.Logger, m *metrics.Collector) *Hub {
	if m == nil {
		m = metrics.Get()
	}
	return &Hub{
		broadcast:  make(chan outbound),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     log,
		metrics:    m,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.metrics.WSConnections.Set(0)
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.WSConnections.Inc()
			h.logger.Info("New spectator connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.WSConnections.Dec()
				h.logger.Info("Spectator disconnected")
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.Filter().Match(msg.event) {
					continue
				}
				select {
				case client.send <- msg.data:
					h.metrics.WSMessagesOut.Inc()
				default:
					// Too slow to keep up; drop the spectator.
					close(client.send)
					delete(h.clients, client)
					h.metrics.WSConnections.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected spectators.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastEvent serializes an event to JSON and sends it to every spectator
// whose filter matches. It returns without sending once the hub has stopped.
func (h *Hub) BroadcastEvent(event events.GameEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to serialize event for WebSocket broadcast", err)
		return
	}
	select {
	case h.broadcast <- outbound{event: event, data: payload}:
	case <-h.done:
	}
}

// StartEventPoller spawns a goroutine that polls the event log and pushes new
// events to the Hub, so the hub never sits on the actors' hot path.
func (h *Hub) StartEventPoller(ctx context.Context, source EventSource, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	go func() {
		pollInterval := time.NewTicker(interval)
		defer pollInterval.Stop()

		// Cursor on sequence numbers: the log may evict old runs between polls.
		var lastSeq int64
		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				for _, event := range source.After(lastSeq) {
					h.BroadcastEvent(event)
					lastSeq = event.Seq
				}
			}
		}
	}()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // spectators may be served from any origin
	},
}

// ServeWs upgrades a spectator connection. Query parameters actor, type and
// run set the initial filter.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket connection", err)
		return
	}

	client := NewClient(h, conn, FilterFromQuery(r.URL.Query()))
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
