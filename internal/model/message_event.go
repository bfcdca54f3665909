package model

// MessageNotification is the newMessage payload: the persisted message plus
// sender display metadata, denormalized at send time.
type MessageNotification struct {
	Message
	SenderName       string `json:"senderName"`
	SenderProfilePic string `json:"senderProfilePic"`
}

// DeliveredReceipt - emitted by the receiving client once a pushed message
// lands in its view; relayed to the original sender.
type DeliveredReceipt struct {
	To        string `json:"to,omitempty"`
	MessageID string `json:"messageId"`
}

// SeenReceipt - emitted by the receiving client when it views the thread.
type SeenReceipt struct {
	To         string   `json:"to,omitempty"`
	MessageIDs []string `json:"messageIds"`
}

// TypingIndicator - ephemeral typing status, relayed and never persisted.
type TypingIndicator struct {
	To               string `json:"to,omitempty"`
	From             string `json:"from"`
	IsTyping         bool   `json:"isTyping"`
	SenderName       string `json:"senderName,omitempty"`
	SenderProfilePic string `json:"senderProfilePic,omitempty"`
}

// PresenceUpdate is the user-online / user-offline payload.
type PresenceUpdate struct {
	UserID     string `json:"userId"`
	FullName   string `json:"fullName"`
	ProfilePic string `json:"profilePic"`
}
