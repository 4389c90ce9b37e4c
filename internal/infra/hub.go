package infra

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"bookstack.io/internal/constants"
	"bookstack.io/internal/domain"
)

// ClientConn abstracts the websocket transport so the hub can be
// exercised without a live connection.
type ClientConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one authenticated real-time connection. A user may hold
// several at once (multiple tabs/devices).
type Client struct {
	ID     string
	UserID uint

	conn ClientConn
	send chan interface{}
}

func NewClient(userID uint, conn ClientConn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan interface{}, 256),
	}
}

// WsMessage is the envelope for every server-to-client event.
type WsMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub owns the presence registry (userID -> active clients) and named
// rooms. It is constructed once at startup and injected wherever pushes
// originate; state lives and dies with the process, so a multi-instance
// deployment fragments presence. Known limitation.
type Hub struct {
	mu sync.RWMutex

	clients   map[*Client]bool
	userConns map[uint]map[*Client]bool
	rooms     map[string]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		userConns:  make(map[uint]map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the registration loop. Run it in its own goroutine.
func (h *Hub) Start() {
	log.Println("Hub: Starting websocket hub...")
	for {
		select {
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		}
	}
}

// add registers an authenticated client, joins its per-user room and
// announces presence if this is the user's first active connection.
func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true

	first := h.userConns[client.UserID] == nil || len(h.userConns[client.UserID]) == 0
	if h.userConns[client.UserID] == nil {
		h.userConns[client.UserID] = make(map[*Client]bool)
	}
	h.userConns[client.UserID][client] = true

	// Per-user topic: every connection of a user is a member of the
	// room named after the user's own id.
	room := userRoom(client.UserID)
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	h.mu.Unlock()

	// Dedicated writer goroutine. A slow client drops messages instead
	// of blocking the hub.
	go func(c *Client) {
		for msg := range c.send {
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("Hub: write error for client %s: %v", c.ID, err)
				c.conn.Close()
				return
			}
		}
	}(client)

	log.Printf("Hub: client %s connected (user %d)", client.ID, client.UserID)

	if first {
		h.broadcastExcept(client, WsMessage{Event: constants.WsEventUserOnline, Data: client.UserID})
	}
}

// remove drops one connection; presence goes offline only when it was
// the user's last one.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)

	last := false
	if conns := h.userConns[client.UserID]; conns != nil {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.userConns, client.UserID)
			last = true
		}
	}

	for name, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, name)
		}
	}
	h.mu.Unlock()

	log.Printf("Hub: client %s disconnected (user %d)", client.ID, client.UserID)

	if last {
		h.broadcastExcept(client, WsMessage{Event: constants.WsEventUserOffline, Data: client.UserID})
	}
}

// JoinRoom subscribes a client to an arbitrary named room.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
}

// PushToUser delivers an event to every active connection of one user.
// Users with no active connection simply miss the push; the persisted
// notification record is the durable copy.
func (h *Hub) PushToUser(userID uint, event string, data interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[userRoom(userID)] {
		h.offer(client, WsMessage{Event: event, Data: data})
	}
}

// PushToRoom delivers an event to every member of a room.
func (h *Hub) PushToRoom(room, event string, data interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		h.offer(client, WsMessage{Event: event, Data: data})
	}
}

// Broadcast delivers an event to every connected client.
func (h *Hub) Broadcast(event string, data interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := WsMessage{Event: event, Data: data}
	for client := range h.clients {
		h.offer(client, msg)
	}
}

func (h *Hub) broadcastExcept(sender *Client, msg WsMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client == sender {
			continue
		}
		h.offer(client, msg)
	}
}

// offer enqueues without blocking; full buffers drop for that client.
func (h *Hub) offer(client *Client, msg WsMessage) {
	select {
	case client.send <- msg:
	default:
	}
}

// IsOnline reports whether a user has at least one active connection.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID]) > 0
}

// ConnectionCount returns the number of active connections for a user.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID])
}

func userRoom(userID uint) string {
	return fmt.Sprintf("%d", userID)
}

var _ domain.Notifier = (*Hub)(nil)
