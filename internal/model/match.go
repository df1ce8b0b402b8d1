package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Match connection statuses. Only accepted pairs may open a chat room.
const (
	MatchStatusPending  = "pending"
	MatchStatusAccepted = "accepted"
	MatchStatusRejected = "rejected"
)

// MatchConnection is one edge in the connections directory: the record
// created when one developer swipes on another. The chat core only
// reads these to answer "are these two matched".
type MatchConnection struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RequesterID string             `json:"requesterId" bson:"requester_id"`
	TargetID    string             `json:"targetId" bson:"target_id"`
	Status      string             `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   *time.Time         `json:"updatedAt" bson:"updated_at"`
}

// ChatSummary is one row of the conversation list screen: the peer and
// a preview of the latest message.
type ChatSummary struct {
	RoomID      string     `json:"roomId"`
	PeerID      string     `json:"peerId"`
	PeerName    string     `json:"peerName"`
	PeerAvatar  string     `json:"peerAvatar"`
	LastMessage *Message   `json:"lastMessage,omitempty"`
	MatchedAt   time.Time  `json:"matchedAt"`
	LastSeenAt  *time.Time `json:"lastSeenAt,omitempty"`
}
