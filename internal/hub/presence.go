package hub

import "sync"

// PresenceRegistry tracks which user identities currently have active
// connections. A user is online iff their connection set is non-empty;
// the count of register calls is irrelevant, only the set matters.
type PresenceRegistry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]struct{} // userID -> connection ids
	byConn map[string]string              // connection id -> userID
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byUser: make(map[string]map[string]struct{}),
		byConn: make(map[string]string),
	}
}

// Register associates a connection with a user identity. Idempotent for
// the same pair; registering a connection that is already bound to a
// different identity fails with ErrDuplicateRegistration. The first
// return value reports whether this was the user's first connection,
// i.e. whether the user just came online.
func (p *PresenceRegistry) Register(connectionID, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if bound, ok := p.byConn[connectionID]; ok {
		if bound != userID {
			return false, ErrDuplicateRegistration
		}
		return false, nil
	}

	conns, ok := p.byUser[userID]
	if !ok {
		conns = make(map[string]struct{})
		p.byUser[userID] = conns
	}

	conns[connectionID] = struct{}{}
	p.byConn[connectionID] = userID

	return len(conns) == 1, nil
}

// Unregister removes the connection's association. Safe to call on an
// unknown connection. Returns the user the connection belonged to and
// whether that user just went offline (last connection removed).
func (p *PresenceRegistry) Unregister(connectionID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.byConn[connectionID]
	if !ok {
		return "", false
	}
	delete(p.byConn, connectionID)

	conns := p.byUser[userID]
	delete(conns, connectionID)
	if len(conns) == 0 {
		delete(p.byUser, userID)
		return userID, true
	}
	return userID, false
}

// IsOnline reports whether the user has at least one active connection.
func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.byUser[userID]) > 0
}

// UserOf returns the identity a connection is registered to.
func (p *PresenceRegistry) UserOf(connectionID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	userID, ok := p.byConn[connectionID]
	return userID, ok
}

// OnlineUsers returns the ids of all currently online users.
func (p *PresenceRegistry) OnlineUsers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]string, 0, len(p.byUser))
	for id := range p.byUser {
		users = append(users, id)
	}
	return users
}

// ConnectionCount returns the number of registered connections.
func (p *PresenceRegistry) ConnectionCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.byConn)
}
