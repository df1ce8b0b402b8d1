package hub

import "errors"

var (
	// ErrDuplicateRegistration - the connection is already bound to a
	// different user identity. Rejected rather than overwritten.
	ErrDuplicateRegistration = errors.New("connection already registered to another user")

	// ErrInvalidPeer - self-chat or a malformed user identifier in a
	// join request.
	ErrInvalidPeer = errors.New("invalid peer for chat room")

	// ErrForbidden - the caller is not a party to the requested room,
	// or the connections directory denies the match.
	ErrForbidden = errors.New("not authorized for chat room")

	// ErrNotInRoom - an in-room event arrived from a connection that
	// has not joined a room. The event is dropped.
	ErrNotInRoom = errors.New("connection is not in a room")
)
