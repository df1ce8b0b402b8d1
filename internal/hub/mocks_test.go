package hub

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"DevMatch/internal/event"
	"DevMatch/internal/model"
)

// mockSink is a transport-free Sink with a fixed identity, for driving
// the relay and the room registry directly.
type mockSink struct {
	id     string
	userID string

	mu        sync.Mutex
	delivered []event.WsEvent
	rejectAll bool
}

func newMockSink(id, userID string) *mockSink {
	return &mockSink{id: id, userID: userID}
}

func (s *mockSink) ConnectionID() string { return s.id }
func (s *mockSink) UserID() string       { return s.userID }

func (s *mockSink) Deliver(ev event.WsEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rejectAll {
		return false
	}
	s.delivered = append(s.delivered, ev)
	return true
}

func (s *mockSink) events() []event.WsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.WsEvent, len(s.delivered))
	copy(out, s.delivered)
	return out
}

func (s *mockSink) eventsOfKind(kind event.Kind) []event.WsEvent {
	var out []event.WsEvent
	for _, ev := range s.events() {
		if ev.Event == kind {
			out = append(out, ev)
		}
	}
	return out
}

// mockConn is a full in-memory connection with a session, registered
// with a hub the way a WebSocket client would be.
type mockConn struct {
	id      string
	session *Session

	mu        sync.Mutex
	delivered []event.WsEvent
}

func newTestConn(h *Hub, id string) *mockConn {
	c := &mockConn{id: id}
	c.session = newSession(h, c)
	h.addClient(c)
	return c
}

func (c *mockConn) ConnectionID() string { return c.id }
func (c *mockConn) UserID() string       { return c.session.SessionUserID() }
func (c *mockConn) Session() *Session    { return c.session }
func (c *mockConn) Close()               {}

func (c *mockConn) Deliver(ev event.WsEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = append(c.delivered, ev)
	return true
}

func (c *mockConn) events() []event.WsEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.WsEvent, len(c.delivered))
	copy(out, c.delivered)
	return out
}

func (c *mockConn) eventsOfKind(kind event.Kind) []event.WsEvent {
	var out []event.WsEvent
	for _, ev := range c.events() {
		if ev.Event == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (c *mockConn) handle(kind event.Kind, payload any) {
	c.session.HandleEvent(event.New(kind, payload))
}

// mockStore is an in-memory MessageStore.
type mockStore struct {
	mu         sync.Mutex
	history    map[string][]model.Message
	saved      []model.Message
	readBy     map[string][]string
	reactions  map[string]map[string][]string
	historyErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		history:   make(map[string][]model.Message),
		readBy:    make(map[string][]string),
		reactions: make(map[string]map[string][]string),
	}
}

func (s *mockStore) SaveMessage(_ context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, *msg)
	return nil
}

func (s *mockStore) LoadHistory(_ context.Context, roomID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history[roomID], nil
}

func (s *mockStore) UpdateReadBy(_ context.Context, _, messageID string, readBy []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readBy[messageID] = readBy
	return nil
}

func (s *mockStore) UpdateReactions(_ context.Context, _, messageID string, reactions map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions[messageID] = reactions
	return nil
}

func (s *mockStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// mockDirectory answers IsMatched from an allow-list of pairs.
type mockDirectory struct {
	mu      sync.Mutex
	matched map[string]bool
	err     error
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{matched: make(map[string]bool)}
}

func (d *mockDirectory) allow(a, b string) {
	key, _ := ResolveRoom(a, b)
	d.mu.Lock()
	d.matched[key] = true
	d.mu.Unlock()
}

func (d *mockDirectory) IsMatched(_ context.Context, userID, targetUserID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	key, err := ResolveRoom(userID, targetUserID)
	if err != nil {
		return false, nil
	}
	return d.matched[key], nil
}

// mockUsers resolves display names from a fixed map.
type mockUsers struct {
	users map[string]*model.User
}

func newMockUsers(names map[string]string) *mockUsers {
	users := make(map[string]*model.User, len(names))
	for id, name := range names {
		users[id] = &model.User{UserID: id, Name: name}
	}
	return &mockUsers{users: users}
}

func (u *mockUsers) GetUser(_ context.Context, userID string) (*model.User, error) {
	if user, ok := u.users[userID]; ok {
		return user, nil
	}
	return nil, context.Canceled
}

func newTestHub(t *testing.T) (*Hub, *mockStore, *mockDirectory) {
	t.Helper()

	store := newMockStore()
	directory := newMockDirectory()
	users := newMockUsers(map[string]string{
		"u1": "Ada",
		"u2": "Linus",
		"u3": "Grace",
	})

	h := NewHub(store, directory, users, zap.NewNop())
	t.Cleanup(h.Stop)

	return h, store, directory
}
