package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the projection of a profile document the chat layer needs:
// a stable identifier and something to display. Profile CRUD is owned
// by the main application service.
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"user_id"`
	Name      string             `json:"name" bson:"name"`
	Avatar    string             `json:"avatar" bson:"avatar"`
	Email     string             `json:"email" bson:"email"`
	IsActive  bool               `json:"isActive" bson:"is_active"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}
