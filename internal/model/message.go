package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxTextLength bounds the text body of a single message.
const MaxTextLength = 1000

// Message represents a direct message in MongoDB. Immutable after insert
// except for Read, which only ever transitions false -> true.
type Message struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	SenderID   primitive.ObjectID `json:"senderId" bson:"sender_id"`
	ReceiverID primitive.ObjectID `json:"receiverId" bson:"receiver_id"`
	Text       string             `json:"text,omitempty" bson:"text,omitempty"`
	ImageURL   string             `json:"image,omitempty" bson:"image_url,omitempty"`
	VideoURL   string             `json:"video,omitempty" bson:"video_url,omitempty"`
	Read       bool               `json:"read" bson:"read"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
}

// HasContent reports whether at least one of text/image/video is present.
func (m *Message) HasContent() bool {
	return m.Text != "" || m.ImageURL != "" || m.VideoURL != ""
}

// ErrorPayload represents an error response sent to client via WebSocket
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
