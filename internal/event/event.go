package event

import "encoding/json"

// Event names, fixed by the client protocol.
const (
	EventOnlineUsers = "getOnlineUsers"
	EventUserOnline  = "user-online"
	EventUserOffline = "user-offline"
	EventTyping      = "typing"
	EventDelivered   = "delivered"
	EventSeen        = "seen"
	EventNewMessage  = "newMessage"
	EventError       = "error"
)

// WsEvent is the envelope for every frame on the realtime channel.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// New wraps a payload into an envelope. Marshal failures indicate a
// programming error in the payload type, not client input.
func New(name string, payload any) (WsEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{}, err
	}
	return WsEvent{Event: name, Payload: raw}, nil
}
