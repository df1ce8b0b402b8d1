package hub

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"DevMatch/internal/model"
)

// MatchDirectory answers whether two users are mutually matched. The
// swipe/match flow that writes these records is external; the hub only
// trusts the answer when authorizing a room join.
type MatchDirectory interface {
	IsMatched(ctx context.Context, userID, targetUserID string) (bool, error)
}

// UserDirectory resolves a user id to its profile projection, used to
// attach display names to broadcasts.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// Conn is a registered connection: a deliverable sink plus its
// session. The WebSocket client is the production implementation;
// tests register in-memory connections.
type Conn interface {
	Sink
	Session() *Session
	Close()
}

// Hub owns the shared realtime state: the presence registry, the room
// registry and the relay, plus the set of live connections. All
// mutation of shared maps is serialized behind their own locks; event
// handling itself runs on each connection's read loop.
type Hub struct {
	presence *PresenceRegistry
	rooms    *RoomRegistry
	relay    *Relay

	store     MessageStore
	directory MatchDirectory
	users     UserDirectory

	clients   map[string]Conn // connection id -> connection
	clientsMu sync.RWMutex

	register   chan Conn
	unregister chan Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.Logger
}

func NewHub(store MessageStore, directory MatchDirectory, users UserDirectory, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		presence:   NewPresenceRegistry(),
		rooms:      NewRoomRegistry(),
		store:      store,
		directory:  directory,
		users:      users,
		clients:    make(map[string]Conn),
		register:   make(chan Conn, 1024),
		unregister: make(chan Conn, 1024),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
	h.relay = NewRelay(h.rooms, store, logger)

	h.wg.Add(1)
	go h.run()

	return h
}

// Presence exposes the presence registry, mainly for the monitor and
// for tests.
func (h *Hub) Presence() *PresenceRegistry { return h.presence }

// Rooms exposes the room registry.
func (h *Hub) Rooms() *RoomRegistry { return h.rooms }

// Relay exposes the message relay.
func (h *Hub) Relay() *Relay { return h.relay }

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c Conn) {
	h.clientsMu.Lock()
	h.clients[c.ConnectionID()] = c
	h.clientsMu.Unlock()

	h.logger.Info("client connected", zap.String("connection_id", c.ConnectionID()))
}

func (h *Hub) removeClient(c Conn) {
	h.clientsMu.Lock()
	_, known := h.clients[c.ConnectionID()]
	delete(h.clients, c.ConnectionID())
	h.clientsMu.Unlock()

	if !known {
		return
	}

	c.Session().teardown()
	c.Close()

	h.logger.Info("client disconnected",
		zap.String("connection_id", c.ConnectionID()),
		zap.String("user_id", c.Session().SessionUserID()),
	)
}

// Stop shuts the hub down: every connection is closed and the run loop
// drained. Used on graceful shutdown.
func (h *Hub) Stop() {
	h.clientsMu.RLock()
	clients := make([]Conn, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		c.Session().teardown()
		c.Close()
	}

	h.cancel()
	h.wg.Wait()
}

// lookupDisplayName resolves a display name through the user
// directory. Failures degrade to an empty name; identity is the
// external provider's problem, rendering is the client's.
func (h *Hub) lookupDisplayName(userID string) string {
	if h.users == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(h.ctx, collaboratorTimeout)
	defer cancel()

	user, err := h.users.GetUser(ctx, userID)
	if err != nil || user == nil {
		h.logger.Debug("display name lookup failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return ""
	}
	return user.Name
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	switch origin {
	case "http://localhost:5173":
		return true
	case "http://localhost:8080":
		return true
	case "https://www.devmatch.dev":
		return true
	default:
		return false
	}
}

// ServeWS upgrades the request and hands the connection to the hub.
// Identity arrives later over the socket via the register event.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(conn, h)
}
