package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message represents a chat message. The wire shape matches what the
// web client sends on sendMessage; ReadBy and Reactions are maintained
// server-side with set semantics.
type Message struct {
	DocID      primitive.ObjectID  `json:"-" bson:"_id,omitempty"`
	ID         string              `json:"id" bson:"message_id"`
	RoomID     string              `json:"roomId" bson:"room_id"`
	SenderID   string              `json:"senderId" bson:"sender_id"`
	SenderName string              `json:"senderName" bson:"sender_name"`
	Text       string              `json:"text" bson:"text"`
	Timestamp  time.Time           `json:"timestamp" bson:"timestamp"`
	ReadBy     []string            `json:"readBy,omitempty" bson:"read_by"`
	Reactions  map[string][]string `json:"reactions,omitempty" bson:"reactions"`
}

// MarkReadBy adds userID to the read-by set. Returns false when the
// user had already read the message.
func (m *Message) MarkReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return false
		}
	}
	m.ReadBy = append(m.ReadBy, userID)
	return true
}

// AddReaction adds userID to the reaction set for emoji. Returns false
// when the reaction was already present.
func (m *Message) AddReaction(emoji, userID string) bool {
	if m.Reactions == nil {
		m.Reactions = make(map[string][]string)
	}
	for _, id := range m.Reactions[emoji] {
		if id == userID {
			return false
		}
	}
	m.Reactions[emoji] = append(m.Reactions[emoji], userID)
	return true
}
