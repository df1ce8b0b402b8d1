package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"DevMatch/internal/event"
)

const collaboratorTimeout = 5 * time.Second

// SessionState is the lifecycle position of one connection.
type SessionState int

const (
	StateConnected SessionState = iota
	StateRegistered
	StateInRoom
	StateDisconnected
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateRegistered:
		return "registered"
	case StateInRoom:
		return "in_room"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session is the per-connection state machine:
//
//	Connected -> Registered -> InRoom -> Disconnected
//
// HandleEvent runs on the connection's read loop, so events from one
// connection are processed strictly in order. Rejections never drop the
// session: a forbidden join leaves it Registered, an in-room event
// without a room is logged and dropped.
type Session struct {
	hub  *Hub
	sink Sink

	// guards the fields below; written on the read loop, read by the
	// monitor snapshot
	mu       sync.RWMutex
	state    SessionState
	userID   string
	userName string
	roomKey  string
}

func newSession(h *Hub, sink Sink) *Session {
	return &Session{
		hub:   h,
		sink:  sink,
		state: StateConnected,
	}
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) SessionUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) RoomKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomKey
}

// HandleEvent dispatches one inbound frame. The switch is exhaustive
// over the client event kinds; server kinds arriving inbound and
// unknown kinds are protocol violations and are dropped with a log.
func (s *Session) HandleEvent(ev event.WsEvent) {
	switch ev.Event {
	case event.KindRegister:
		s.handleRegister(ev.Payload)
	case event.KindJoinChatRoom:
		s.handleJoinRoom(ev.Payload)
	case event.KindSendMessage:
		s.handleSendMessage(ev.Payload)
	case event.KindTyping:
		s.handleTyping(ev.Payload, false)
	case event.KindStopTyping:
		s.handleTyping(ev.Payload, true)
	case event.KindReadMessage:
		s.handleReadMessage(ev.Payload)
	case event.KindReactMessage:
		s.handleReactMessage(ev.Payload)
	case event.KindReceiveMessage, event.KindChatHistory, event.KindMessageRead,
		event.KindMessageReaction, event.KindUserOnline, event.KindUserOffline,
		event.KindRoomJoined, event.KindError:
		s.logDrop("server-to-client event received from client", ev.Event)
	default:
		s.logDrop("unknown event kind", ev.Event)
	}
}

func (s *Session) handleRegister(raw json.RawMessage) {
	var payload event.RegisterPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.UserID == "" {
		s.logDrop("malformed register payload", event.KindRegister)
		return
	}

	first, err := s.hub.presence.Register(s.sink.ConnectionID(), payload.UserID)
	if err != nil {
		// DuplicateRegistration: a client bug, logged and dropped, the
		// session keeps its prior identity.
		s.hub.logger.Warn("register rejected",
			zap.String("connection_id", s.sink.ConnectionID()),
			zap.String("user_id", payload.UserID),
			zap.Error(err),
		)
		return
	}

	name := payload.Name
	if name == "" {
		name = s.hub.lookupDisplayName(payload.UserID)
	}

	s.mu.Lock()
	if s.state == StateConnected {
		s.state = StateRegistered
	}
	s.userID = payload.UserID
	s.userName = name
	s.mu.Unlock()

	if first {
		s.hub.fanOutPresence(event.KindUserOnline, payload.UserID)
	}
}

func (s *Session) handleJoinRoom(raw json.RawMessage) {
	var payload event.JoinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.logDrop("malformed join payload", event.KindJoinChatRoom)
		return
	}

	s.mu.RLock()
	state, userID, currentRoom := s.state, s.userID, s.roomKey
	s.mu.RUnlock()

	if state != StateRegistered && state != StateInRoom {
		s.logDrop("join before register", event.KindJoinChatRoom)
		return
	}

	// The registered identity is authoritative; the payload's userId is
	// only client convenience.
	roomKey, err := ResolveRoom(userID, payload.TargetUserID)
	if err != nil {
		s.sendError(event.ErrorCodeInvalidPeer, "cannot open a chat with that user")
		return
	}

	if !AuthorizeJoin(roomKey, userID) {
		s.sendError(event.ErrorCodeForbidden, "not a participant of this chat")
		return
	}

	ctx, cancel := context.WithTimeout(s.hub.ctx, collaboratorTimeout)
	matched, err := s.hub.directory.IsMatched(ctx, userID, payload.TargetUserID)
	cancel()
	if err != nil {
		s.hub.logger.Error("connections directory lookup failed",
			zap.String("user_id", userID),
			zap.String("target_user_id", payload.TargetUserID),
			zap.Error(err),
		)
		s.sendError(event.ErrorCodeForbidden, "not a participant of this chat")
		return
	}
	if !matched {
		s.sendError(event.ErrorCodeForbidden, "not a participant of this chat")
		return
	}

	// One room per connection: joining a new room leaves the old one.
	if currentRoom != "" && currentRoom != roomKey {
		s.hub.rooms.Leave(currentRoom, s.sink.ConnectionID())
	}

	room := s.hub.rooms.Join(roomKey, s.sink)

	s.mu.Lock()
	s.state = StateInRoom
	s.roomKey = roomKey
	s.mu.Unlock()

	s.sink.Deliver(event.New(event.KindRoomJoined, event.RoomJoinedPayload{RoomID: roomKey}))

	s.replayHistory(room)
}

// replayHistory loads prior messages for the room and delivers them to
// this connection only. A store failure degrades to an empty history;
// the join itself never fails on it.
func (s *Session) replayHistory(room *Room) {
	ctx, cancel := context.WithTimeout(s.hub.ctx, collaboratorTimeout)
	defer cancel()

	messages, err := s.hub.store.LoadHistory(ctx, room.Key)
	if err != nil {
		s.hub.logger.Error("history load failed",
			zap.String("room_id", room.Key),
			zap.Error(err),
		)
		messages = nil
	}

	room.seedHistory(messages)

	s.sink.Deliver(event.New(event.KindChatHistory, event.ChatHistoryPayload{
		RoomID:   room.Key,
		Messages: messages,
	}))
}

func (s *Session) handleSendMessage(raw json.RawMessage) {
	var payload event.SendMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.logDrop("malformed message payload", event.KindSendMessage)
		return
	}

	roomKey, ok := s.requireRoom(event.KindSendMessage, payload.RoomID)
	if !ok {
		return
	}

	msg := payload.Message
	s.mu.RLock()
	msg.SenderName = s.userName
	s.mu.RUnlock()

	s.hub.relay.SendMessage(roomKey, msg, s.sink)
}

func (s *Session) handleTyping(raw json.RawMessage, stop bool) {
	kind := event.KindTyping
	if stop {
		kind = event.KindStopTyping
	}

	var payload event.TypingPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.logDrop("malformed typing payload", kind)
		return
	}

	roomKey, ok := s.requireRoom(kind, payload.RoomID)
	if !ok {
		return
	}

	s.hub.relay.Typing(roomKey, s.SessionUserID(), stop, s.sink)
}

func (s *Session) handleReadMessage(raw json.RawMessage) {
	var payload event.ReadMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.MessageID == "" {
		s.logDrop("malformed read payload", event.KindReadMessage)
		return
	}

	roomKey, ok := s.requireRoom(event.KindReadMessage, payload.RoomID)
	if !ok {
		return
	}

	s.hub.relay.ReadMessage(roomKey, payload.MessageID, s.SessionUserID(), s.sink)
}

func (s *Session) handleReactMessage(raw json.RawMessage) {
	var payload event.ReactMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.MessageID == "" || payload.Emoji == "" {
		s.logDrop("malformed reaction payload", event.KindReactMessage)
		return
	}

	roomKey, ok := s.requireRoom(event.KindReactMessage, payload.RoomID)
	if !ok {
		return
	}

	s.hub.relay.ReactMessage(roomKey, payload.MessageID, payload.Emoji, s.SessionUserID(), s.sink)
}

// requireRoom enforces the NotInRoom policy: in-room events from a
// connection without a room, or naming a room other than the joined
// one, are dropped with a log and no broadcast.
func (s *Session) requireRoom(kind event.Kind, claimedRoomID string) (string, bool) {
	s.mu.RLock()
	state, roomKey := s.state, s.roomKey
	s.mu.RUnlock()

	if state != StateInRoom {
		s.hub.logger.Warn("in-room event without room",
			zap.String("event", string(kind)),
			zap.String("connection_id", s.sink.ConnectionID()),
			zap.Error(ErrNotInRoom),
		)
		return "", false
	}

	if claimedRoomID != "" && claimedRoomID != roomKey {
		s.hub.logger.Warn("event for a room the connection has not joined",
			zap.String("event", string(kind)),
			zap.String("claimed_room_id", claimedRoomID),
			zap.String("room_id", roomKey),
			zap.String("connection_id", s.sink.ConnectionID()),
		)
		return "", false
	}

	return roomKey, true
}

// teardown runs the transition to Disconnected: room membership and
// presence are released, and peers learn about an offline transition.
// Safe to call more than once.
func (s *Session) teardown() {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	roomKey := s.roomKey
	s.state = StateDisconnected
	s.roomKey = ""
	s.mu.Unlock()

	if roomKey != "" {
		s.hub.rooms.Leave(roomKey, s.sink.ConnectionID())
	}

	if userID, last := s.hub.presence.Unregister(s.sink.ConnectionID()); last {
		s.hub.fanOutPresence(event.KindUserOffline, userID)
	}
}

func (s *Session) sendError(code, message string) {
	s.sink.Deliver(event.New(event.KindError, event.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

func (s *Session) logDrop(reason string, kind event.Kind) {
	s.hub.logger.Warn(reason,
		zap.String("event", string(kind)),
		zap.String("connection_id", s.sink.ConnectionID()),
	)
}
