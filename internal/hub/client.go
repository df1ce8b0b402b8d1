package hub

import (
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"DevMatch/internal/event"
)

var (
	// tuning parameters
	writeWait         = 10 * time.Second    // time allowed to write a message to the peer
	pongWait          = 60 * time.Second    // time allowed to read the next pong message from the peer
	pingInterval      = (pongWait * 9) / 10 // send pings to peer with this period
	maxMessageSize    = 64 * 1024           // max inbound message size (64KB)
	sendBufSize       = 256                 // per-connection outbound buffer size
	sendTimeout       = 2 * time.Second     // timeout for enqueuing outbound messages
	registerTimeout   = 5 * time.Second     // timeout for client registration
	unregisterTimeout = 5 * time.Second     // timeout for client unregistration
)

// Client is one WebSocket connection. Inbound frames are handled on
// the read loop via the session, which keeps events from a single
// connection strictly ordered; outbound frames go through the buffered
// egress channel drained by the write loop.
type Client struct {
	ID      string
	conn    *websocket.Conn
	hub     *Hub
	session *Session
	egress  chan event.WsEvent

	once sync.Once

	// closed guards egress against a send-after-close; Deliver holds
	// the read side for the duration of the enqueue
	closed   bool
	closedMu sync.RWMutex
}

// RegisterClient creates a client for the upgraded connection and
// starts its pumps.
func RegisterClient(conn *websocket.Conn, h *Hub) *Client {
	client := &Client{
		ID:     uuid.New().String(),
		conn:   conn,
		hub:    h,
		egress: make(chan event.WsEvent, sendBufSize),
	}
	client.session = newSession(h, client)

	select {
	case h.register <- client:
		go client.readPump()
		go client.writePump()
		return client
	case <-time.After(registerTimeout):
		log.Printf("failed to register client %s: timeout", client.ID)
		conn.Close()
		return nil
	}
}

// --- Sink implementation ---

func (c *Client) ConnectionID() string { return c.ID }

func (c *Client) UserID() string { return c.session.SessionUserID() }

func (c *Client) Session() *Session { return c.session }

// Deliver enqueues an event for the write loop. Reports false when the
// client is closed or the buffer stays full past the send timeout.
func (c *Client) Deliver(ev event.WsEvent) bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()

	if c.closed {
		return false
	}

	select {
	case c.egress <- ev:
		return true
	case <-time.After(sendTimeout):
		return false
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
			// unregistered
		case <-time.After(unregisterTimeout):
			log.Printf("failed to unregister client %s: timeout", c.ID)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev event.WsEvent
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				log.Printf("client disconnected: %s", c.ID)
				return
			}

			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				log.Printf("client %s timed out - closing connection", c.ID)
				return
			}

			log.Printf("error reading from client %s: %v", c.ID, err)
			return
		}

		// Handle inline: one event at a time per connection keeps the
		// per-sender FIFO delivery order.
		c.session.HandleEvent(ev)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.egress:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("write error for client %s: %v", c.ID, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Close stops the write loop and marks the client undeliverable. Safe
// to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		close(c.egress)
		c.closedMu.Unlock()
	})
}
