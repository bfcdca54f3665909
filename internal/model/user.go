package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user document in MongoDB. Owned by the auth/profile
// layer; the realtime core only reads display metadata and touches LastSeen.
type User struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FullName   string             `json:"fullName" bson:"full_name"`
	Email      string             `json:"email" bson:"email"`
	ProfilePic string             `json:"profilePic" bson:"profile_pic"`
	LastSeen   time.Time          `json:"lastSeen" bson:"last_seen"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
}

// Fallback display metadata, used when a sender lookup fails at relay time.
const (
	DefaultSenderName = "A user"
	DefaultProfilePic = "/avatar.png"
)
