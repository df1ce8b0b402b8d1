package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceRegisterMarksOnline(t *testing.T) {
	p := NewPresenceRegistry()

	first, err := p.Register("c1", "u1")
	require.NoError(t, err)
	assert.True(t, first)
	assert.True(t, p.IsOnline("u1"))
}

func TestPresenceRegisterIdempotentPerConnection(t *testing.T) {
	p := NewPresenceRegistry()

	first, err := p.Register("c1", "u1")
	require.NoError(t, err)
	assert.True(t, first)

	// same connection, same user: no-op
	first, err = p.Register("c1", "u1")
	require.NoError(t, err)
	assert.False(t, first)
	assert.True(t, p.IsOnline("u1"))
}

func TestPresenceDuplicateRegistrationRejected(t *testing.T) {
	p := NewPresenceRegistry()

	_, err := p.Register("c1", "u1")
	require.NoError(t, err)

	_, err = p.Register("c1", "u2")
	assert.ErrorIs(t, err, ErrDuplicateRegistration)

	// binding unchanged
	userID, ok := p.UserOf("c1")
	require.True(t, ok)
	assert.Equal(t, "u1", userID)
	assert.False(t, p.IsOnline("u2"))
}

func TestPresenceSetSemantics(t *testing.T) {
	p := NewPresenceRegistry()

	// two tabs for one user
	first, err := p.Register("c1", "u1")
	require.NoError(t, err)
	assert.True(t, first)

	first, err = p.Register("c2", "u1")
	require.NoError(t, err)
	assert.False(t, first, "second connection is not a fresh online transition")

	userID, last := p.Unregister("c1")
	assert.Equal(t, "u1", userID)
	assert.False(t, last)
	assert.True(t, p.IsOnline("u1"), "still one connection left")

	userID, last = p.Unregister("c2")
	assert.Equal(t, "u1", userID)
	assert.True(t, last)
	assert.False(t, p.IsOnline("u1"))
}

func TestPresenceUnregisterUnknownIsNoop(t *testing.T) {
	p := NewPresenceRegistry()

	userID, last := p.Unregister("ghost")
	assert.Empty(t, userID)
	assert.False(t, last)
}

func TestPresenceOnlineUsers(t *testing.T) {
	p := NewPresenceRegistry()

	_, err := p.Register("c1", "u1")
	require.NoError(t, err)
	_, err = p.Register("c2", "u2")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"u1", "u2"}, p.OnlineUsers())
	assert.Equal(t, 2, p.ConnectionCount())
}
