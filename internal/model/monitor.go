package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy", "idle"
	Connections ConnectionStats `json:"connections"`
	OnlineUsers []string        `json:"onlineUsers"` // online user ids
	Clients     []ClientInfo    `json:"clients"`     // list of connected clients
	Delivery    DeliveryStats   `json:"delivery"`
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnected int `json:"totalConnected"` // live connections
	TotalOnline    int `json:"totalOnline"`    // distinct online users
}

// DeliveryStats holds cumulative event-bus counters
type DeliveryStats struct {
	Pushed  int64 `json:"pushed"`  // targeted sends that reached an egress buffer
	Relayed int64 `json:"relayed"` // client-to-client receipt/typing relays
	Dropped int64 `json:"dropped"` // sends lost to offline or full targets
}

// ClientInfo contains information about a connected client
type ClientInfo struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
	Online   bool   `json:"online"` // false for a superseded connection
}
