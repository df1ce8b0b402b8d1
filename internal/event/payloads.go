package event

import "DevMatch/internal/model"

// Client payloads

// RegisterPayload binds the connection to an authenticated identity.
type RegisterPayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// JoinRoomPayload requests entry into the 1:1 room with the target user.
type JoinRoomPayload struct {
	UserID       string `json:"userId"`
	TargetUserID string `json:"targetUserId"`
	Name         string `json:"name"`
}

type SendMessagePayload struct {
	RoomID  string        `json:"roomId"`
	Message model.Message `json:"message"`
}

// TypingPayload is shared by typing and stopTyping.
type TypingPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type ReadMessagePayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

type ReactMessagePayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	UserID    string `json:"userId"`
}

// Server payloads

type RoomJoinedPayload struct {
	RoomID string `json:"roomId"`
}

type ChatHistoryPayload struct {
	RoomID   string          `json:"roomId"`
	Messages []model.Message `json:"messages"`
}

// MessageReadPayload carries the full read-by set so late joiners can
// reconcile without replaying every receipt.
type MessageReadPayload struct {
	MessageID string   `json:"messageId"`
	UserID    string   `json:"userId"`
	ReadBy    []string `json:"readBy"`
}

type MessageReactionPayload struct {
	MessageID string   `json:"messageId"`
	Emoji     string   `json:"emoji"`
	UserID    string   `json:"userId"`
	Users     []string `json:"users"`
}

// PresencePayload carries the subject of a userOnline/userOffline event.
type PresencePayload struct {
	UserID string `json:"userId"`
}

// ErrorPayload is the explicit rejection sent back to the offending
// client. Only forbidden and invalid_peer reach the wire; everything
// else is logged server-side.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes surfaced to clients.
const (
	ErrorCodeForbidden   = "forbidden"
	ErrorCodeInvalidPeer = "invalid_peer"
)
