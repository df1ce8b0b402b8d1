package event

import "encoding/json"

// Kind identifies a WebSocket event. The set below is closed: the
// session dispatcher switches exhaustively over the client kinds and
// treats anything else as a protocol violation.
type Kind string

// Client to Server
const (
	KindRegister     Kind = "register"
	KindJoinChatRoom Kind = "joinChatRoom"
	KindSendMessage  Kind = "sendMessage"
	KindTyping       Kind = "typing"
	KindStopTyping   Kind = "stopTyping"
	KindReadMessage  Kind = "readMessage"
	KindReactMessage Kind = "reactMessage"
)

// Server to Client
const (
	KindReceiveMessage  Kind = "receiveMessage"
	KindChatHistory     Kind = "chatHistory"
	KindMessageRead     Kind = "messageRead"
	KindMessageReaction Kind = "messageReaction"
	KindUserOnline      Kind = "userOnline"
	KindUserOffline     Kind = "userOffline"
	KindRoomJoined      Kind = "roomJoined"
	KindError           Kind = "error"
)

// WsEvent is the envelope for every frame on the socket. The payload
// stays raw until the dispatcher knows the kind.
type WsEvent struct {
	Event   Kind            `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// New marshals payload into a ready-to-send envelope. Our payload
// structs cannot fail to marshal, so the error is dropped.
func New(kind Kind, payload any) WsEvent {
	raw, _ := json.Marshal(payload)
	return WsEvent{Event: kind, Payload: raw}
}
