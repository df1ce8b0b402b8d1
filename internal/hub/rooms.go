package hub

import (
	"crypto/sha1"
	"encoding/binary"
	"strings"
	"sync"

	"DevMatch/internal/event"
	"DevMatch/internal/model"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load

	roomKeySeparator = "_"
)

// ResolveRoom derives the canonical room key for an unordered pair of
// user ids: the two ids sorted lexicographically, joined by "_". The
// result is identical regardless of which side initiates.
func ResolveRoom(requesterID, targetID string) (string, error) {
	if requesterID == "" || targetID == "" || requesterID == targetID {
		return "", ErrInvalidPeer
	}
	if requesterID < targetID {
		return requesterID + roomKeySeparator + targetID, nil
	}
	return targetID + roomKeySeparator + requesterID, nil
}

// AuthorizeJoin reports whether userID is one of the two identities
// encoded in roomKey. Whether the pair is actually matched is the
// connections directory's call, made before this one.
func AuthorizeJoin(roomKey, userID string) bool {
	a, b, ok := splitRoomKey(roomKey)
	if !ok {
		return false
	}
	return userID == a || userID == b
}

func splitRoomKey(roomKey string) (string, string, bool) {
	a, b, found := strings.Cut(roomKey, roomKeySeparator)
	if !found || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// Room is the live state of one 1:1 chat: the member connections and
// an index of messages seen this session, kept so read receipts and
// reactions can be applied with set semantics before rebroadcast.
type Room struct {
	Key string

	mu       sync.RWMutex
	members  map[string]Sink // connection id -> sink
	messages map[string]*model.Message
}

func newRoom(key string) *Room {
	return &Room{
		Key:      key,
		members:  make(map[string]Sink),
		messages: make(map[string]*model.Message),
	}
}

// Members returns a snapshot of the current membership. Callers deliver
// to the snapshot without holding the room lock.
func (r *Room) Members() []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]Sink, 0, len(r.members))
	for _, s := range r.members {
		members = append(members, s)
	}
	return members
}

// MemberIDs returns the connection ids currently in the room.
func (r *Room) MemberIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	return ids
}

// trackMessage returns the room's live copy of the message with the
// given id, creating a bare entry when the id is only known from
// history or from a peer's client.
func (r *Room) trackMessage(messageID string) *model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[messageID]
	if !ok {
		msg = &model.Message{ID: messageID, RoomID: r.Key}
		r.messages[messageID] = msg
	}
	return msg
}

func (r *Room) rememberMessage(msg *model.Message) {
	r.mu.Lock()
	r.messages[msg.ID] = msg
	r.mu.Unlock()
}

// seedHistory records history messages in the live index so receipts
// and reactions on them keep their stored sets. Messages already
// tracked keep their live state.
func (r *Room) seedHistory(messages []model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range messages {
		msg := messages[i]
		if _, ok := r.messages[msg.ID]; !ok {
			r.messages[msg.ID] = &msg
		}
	}
}

// applyRead adds userID to the message's read-by set and returns a
// copy of the resulting set plus whether it actually grew.
func (r *Room) applyRead(messageID, userID string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[messageID]
	if !ok {
		msg = &model.Message{ID: messageID, RoomID: r.Key}
		r.messages[messageID] = msg
	}

	changed := msg.MarkReadBy(userID)
	readBy := make([]string, len(msg.ReadBy))
	copy(readBy, msg.ReadBy)
	return readBy, changed
}

// applyReaction adds userID to the message's reaction set for emoji and
// returns a copy of that entry, a copy of the full reaction map for
// persistence, and whether the entry actually grew.
func (r *Room) applyReaction(messageID, emoji, userID string) ([]string, map[string][]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[messageID]
	if !ok {
		msg = &model.Message{ID: messageID, RoomID: r.Key}
		r.messages[messageID] = msg
	}

	changed := msg.AddReaction(emoji, userID)

	users := make([]string, len(msg.Reactions[emoji]))
	copy(users, msg.Reactions[emoji])

	reactions := make(map[string][]string, len(msg.Reactions))
	for e, ids := range msg.Reactions {
		cp := make([]string, len(ids))
		copy(cp, ids)
		reactions[e] = cp
	}
	return users, reactions, changed
}

// RoomRegistry is the explicit mapping from room key to membership,
// sharded to keep lock contention local. Rooms are created on first
// join and dropped when the last member leaves.
type RoomRegistry struct {
	shards [shardCount]*roomBucket
}

type roomBucket struct {
	sync.RWMutex
	rooms map[string]*Room
}

func NewRoomRegistry() *RoomRegistry {
	reg := &RoomRegistry{}
	for i := 0; i < shardCount; i++ {
		reg.shards[i] = &roomBucket{rooms: make(map[string]*Room)}
	}
	return reg
}

func getShard(roomKey string) uint32 {
	if roomKey == "" {
		return 0
	}

	h := sha1.Sum([]byte(roomKey))
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

// Join adds the sink to the room for roomKey, creating the room if it
// does not exist yet.
func (reg *RoomRegistry) Join(roomKey string, s Sink) *Room {
	b := reg.shards[getShard(roomKey)]
	b.Lock()
	room, ok := b.rooms[roomKey]
	if !ok {
		room = newRoom(roomKey)
		b.rooms[roomKey] = room
	}
	b.Unlock()

	room.mu.Lock()
	room.members[s.ConnectionID()] = s
	room.mu.Unlock()

	return room
}

// Leave removes the sink's connection from the room. The room is
// garbage-collected once its membership empties; it can always be
// reconstructed from the key.
func (reg *RoomRegistry) Leave(roomKey string, connectionID string) {
	b := reg.shards[getShard(roomKey)]
	b.Lock()
	defer b.Unlock()

	room, ok := b.rooms[roomKey]
	if !ok {
		return
	}

	room.mu.Lock()
	delete(room.members, connectionID)
	empty := len(room.members) == 0
	room.mu.Unlock()

	if empty {
		delete(b.rooms, roomKey)
	}
}

// Get returns the live room for roomKey, or nil.
func (reg *RoomRegistry) Get(roomKey string) *Room {
	b := reg.shards[getShard(roomKey)]
	b.RLock()
	defer b.RUnlock()
	return b.rooms[roomKey]
}

// Snapshot returns info about every live room, for the monitor.
func (reg *RoomRegistry) Snapshot() []model.RoomInfo {
	var infos []model.RoomInfo
	for _, b := range reg.shards {
		b.RLock()
		for _, room := range b.rooms {
			memberIDs := room.MemberIDs()
			infos = append(infos, model.RoomInfo{
				RoomID:       room.Key,
				TotalMembers: len(memberIDs),
				MemberIDs:    memberIDs,
			})
		}
		b.RUnlock()
	}
	return infos
}

// Sink is one deliverable connection. The WebSocket client implements
// it for production; tests substitute in-memory sinks so the relay and
// session logic run without a live transport.
type Sink interface {
	ConnectionID() string
	UserID() string

	// Deliver enqueues the event for this connection. It reports false
	// when the connection is closed or its buffer stayed full past the
	// send timeout; the event is then dropped for this recipient only.
	Deliver(ev event.WsEvent) bool
}
