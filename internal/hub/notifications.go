package hub

import (
	"go.uber.org/zap"

	"DevMatch/internal/event"
)

// -----------------------------------------------------------------
// Presence fan-out
// -----------------------------------------------------------------

// fanOutPresence tells every other connected client that a user came
// online or went offline. The subject's own connections are skipped;
// their client already knows.
func (h *Hub) fanOutPresence(kind event.Kind, userID string) {
	ev := event.New(kind, event.PresencePayload{UserID: userID})

	h.clientsMu.RLock()
	clients := make([]Conn, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		if c.Session().SessionUserID() == userID {
			continue
		}
		c.Deliver(ev)
	}

	h.logger.Debug("presence fan-out",
		zap.String("event", string(kind)),
		zap.String("user_id", userID),
	)
}

// SendToUser delivers an event to every connection of one user.
// Reports whether at least one connection accepted it.
func (h *Hub) SendToUser(userID string, ev event.WsEvent) bool {
	h.clientsMu.RLock()
	clients := make([]Conn, 0, 2)
	for _, c := range h.clients {
		if c.Session().SessionUserID() == userID {
			clients = append(clients, c)
		}
	}
	h.clientsMu.RUnlock()

	delivered := false
	for _, c := range clients {
		if c.Deliver(ev) {
			delivered = true
		}
	}
	return delivered
}
