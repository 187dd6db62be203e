// Package feed pushes the JSON state projection to subscribers over a
// websocket as soon as each block commits (spec.md §6's "State
// projection (output)"). It is a thin collaborator that sits next to
// internal/engine, not inside it — the RPC/REST façade itself stays out
// of scope (spec.md §1's Non-goals), exactly as the register/unregister/
// broadcast hub it is grounded on sits next to, not inside, the teacher's
// swap coordinator.
//
// Grounded directly on klingon-v2/internal/rpc/websocket.go's WSHub/
// WSClient pattern: the register/unregister/broadcast channel trio, the
// per-client subscription set, and the ping/write-pump goroutine shape
// all carry over unchanged. Only the event vocabulary changes — one
// event kind, the committed block result, in place of the teacher's peer-
// connection and node-status events.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/google/uuid"

	"github.com/hexrealm/taurion-gsp/internal/engine"
	"github.com/hexrealm/taurion-gsp/pkg/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventType identifies the kind of event carried by an Event.
type EventType string

// EventBlockCommitted is the only event kind this feed emits today: a
// freshly committed block's height, commitment hash, and full JSON state
// projection (spec.md §6). Kept as a typed event rather than pushing the
// projection bare so the wire format has room to grow a second event kind
// (e.g. a rejected-move notice) without a breaking change.
const EventBlockCommitted EventType = "block_committed"

// Event is one message pushed to subscribed clients.
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Subscription is a client's request to start or stop receiving a set of
// event types. A client with no active subscriptions receives everything
// — the same "empty set means all" default the teacher's hub uses.
type Subscription struct {
	Action string   `json:"action"`
	Events []string `json:"events"`
}

// Client is one connected websocket subscriber.
type Client struct {
	id            uuid.UUID
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[EventType]bool
	mu            sync.RWMutex
	hub           *Hub
}

// Hub manages every connected feed client and fans out committed-block
// events to the ones subscribed to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	log        *logging.Logger
	mu         sync.RWMutex
}

// NewHub constructs a Hub. Callers must run Hub.Run in its own goroutine
// before any client can connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        logging.GetDefault().Component("feed"),
	}
}

// Run drives the hub's event loop until ctx-independent shutdown; callers
// typically launch it with `go hub.Run()` once at process start.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("feed client connected", "client", client.id, "clients", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Debug("feed client disconnected", "client", client.id, "clients", len(h.clients))

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error("failed to marshal feed event", "error", err)
				continue
			}

			h.mu.RLock()
			for client := range h.clients {
				client.mu.RLock()
				subscribed := client.subscriptions[event.Type] || len(client.subscriptions) == 0
				client.mu.RUnlock()
				if !subscribed {
					continue
				}

				select {
				case client.send <- data:
				default:
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends an event to every subscribed client. Never blocks: a
// full broadcast buffer drops the event with a warning rather than stall
// the block-processing caller.
func (h *Hub) Broadcast(eventType EventType, data interface{}) {
	event := &Event{Type: eventType, Data: data, Timestamp: time.Now().Unix()}
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("feed broadcast buffer full, dropping event", "type", eventType)
	}
}

// PushBlock broadcasts a freshly committed block's result to every
// subscriber — the one call internal/engine's caller needs after each
// successful ProcessBlock.
func (h *Hub) PushBlock(result *engine.BlockResult) {
	h.Broadcast(EventBlockCommitted, result)
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades an HTTP request to a websocket connection and
// registers it with the hub. Callers mount this on whatever route their
// own HTTP server (outside this module's scope, spec.md §1) chooses.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("feed websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:            uuid.New(),
		conn:          conn,
		send:          make(chan []byte, 256),
		subscriptions: make(map[EventType]bool),
		hub:           h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("feed websocket read error", "error", err)
			}
			break
		}

		var sub Subscription
		if err := json.Unmarshal(message, &sub); err == nil {
			c.handleSubscription(&sub)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleSubscription(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, eventStr := range sub.Events {
		eventType := EventType(eventStr)
		switch sub.Action {
		case "subscribe":
			c.subscriptions[eventType] = true
		case "unsubscribe":
			delete(c.subscriptions, eventType)
		}
	}
}
