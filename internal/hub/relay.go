package hub

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"DevMatch/internal/event"
	"DevMatch/internal/model"
)

const persistTimeout = 5 * time.Second

// MessageStore is the external message store boundary. The relay writes
// through it and the session reads history from it, but delivery never
// depends on a store call succeeding.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *model.Message) error
	LoadHistory(ctx context.Context, roomID string) ([]model.Message, error)
	UpdateReadBy(ctx context.Context, roomID, messageID string, readBy []string) error
	UpdateReactions(ctx context.Context, roomID, messageID string, reactions map[string][]string) error
}

// Relay validates and rebroadcasts in-room events to the room's current
// membership. The originating connection is always excluded: the
// client renders its own optimistic copy, and a user's other open tabs
// still receive the broadcast.
//
// Ordering: the relay runs inline on the sender's read loop, so events
// from one connection reach every recipient's egress queue in send
// order. There is no cross-sender ordering guarantee.
type Relay struct {
	rooms  *RoomRegistry
	store  MessageStore
	logger *zap.Logger
}

func NewRelay(rooms *RoomRegistry, store MessageStore, logger *zap.Logger) *Relay {
	return &Relay{
		rooms:  rooms,
		store:  store,
		logger: logger,
	}
}

// SendMessage assigns server-side id and timestamp when the client
// omitted them, records the message in the room's live index, persists
// it through the store and broadcasts it to the room.
func (rl *Relay) SendMessage(roomKey string, msg model.Message, from Sink) model.Message {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	msg.RoomID = roomKey
	msg.SenderID = from.UserID()

	room := rl.rooms.Get(roomKey)
	if room == nil {
		// Sender's own membership guarantees a live room; a nil here
		// means the sender raced its own disconnect.
		return msg
	}

	live := msg
	room.rememberMessage(&live)

	rl.persist("save message", msg.ID, func(ctx context.Context) error {
		return rl.store.SaveMessage(ctx, &msg)
	})

	rl.broadcast(room, event.New(event.KindReceiveMessage, msg), from.ConnectionID())
	return msg
}

// Typing broadcasts a lightweight typing signal. Nothing is persisted
// and the server never times the state out; clearing it is the
// client's job (via stopTyping or its own timeout).
func (rl *Relay) Typing(roomKey, userID string, stop bool, from Sink) {
	room := rl.rooms.Get(roomKey)
	if room == nil {
		return
	}

	kind := event.KindTyping
	if stop {
		kind = event.KindStopTyping
	}

	payload := event.TypingPayload{RoomID: roomKey, UserID: userID}
	rl.broadcast(room, event.New(kind, payload), from.ConnectionID())
}

// ReadMessage appends userID to the message's read-by set and
// broadcasts the updated set. Re-reading is a no-op on the set.
func (rl *Relay) ReadMessage(roomKey, messageID, userID string, from Sink) {
	room := rl.rooms.Get(roomKey)
	if room == nil {
		return
	}

	readBy, changed := room.applyRead(messageID, userID)
	if changed {
		rl.persist("update read receipts", messageID, func(ctx context.Context) error {
			return rl.store.UpdateReadBy(ctx, roomKey, messageID, readBy)
		})
	}

	payload := event.MessageReadPayload{
		MessageID: messageID,
		UserID:    userID,
		ReadBy:    readBy,
	}
	rl.broadcast(room, event.New(event.KindMessageRead, payload), from.ConnectionID())
}

// ReactMessage appends userID to the reaction set for emoji and
// broadcasts the updated entry. Reacting twice with the same emoji is
// a no-op on the set.
func (rl *Relay) ReactMessage(roomKey, messageID, emoji, userID string, from Sink) {
	room := rl.rooms.Get(roomKey)
	if room == nil {
		return
	}

	users, reactions, changed := room.applyReaction(messageID, emoji, userID)
	if changed {
		rl.persist("update reactions", messageID, func(ctx context.Context) error {
			return rl.store.UpdateReactions(ctx, roomKey, messageID, reactions)
		})
	}

	payload := event.MessageReactionPayload{
		MessageID: messageID,
		Emoji:     emoji,
		UserID:    userID,
		Users:     users,
	}
	rl.broadcast(room, event.New(event.KindMessageReaction, payload), from.ConnectionID())
}

// broadcast delivers ev to every member except the originating
// connection. Delivery is at-most-once per recipient: a full or closed
// sink drops the event for that recipient only.
func (rl *Relay) broadcast(room *Room, ev event.WsEvent, exceptConnID string) {
	for _, member := range room.Members() {
		if member.ConnectionID() == exceptConnID {
			continue
		}
		if !member.Deliver(ev) {
			rl.logger.Warn("dropped event for slow or closed connection",
				zap.String("event", string(ev.Event)),
				zap.String("room_id", room.Key),
				zap.String("connection_id", member.ConnectionID()),
			)
		}
	}
}

// persist runs a store write off the relay path. A failed write is
// logged and forgotten: the broadcast already happened and clients
// resync through history on reconnect.
func (rl *Relay) persist(op, messageID string, fn func(ctx context.Context) error) {
	if rl.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			rl.logger.Error("store write failed",
				zap.String("op", op),
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		}
	}()
}
