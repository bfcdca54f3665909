package hub

import (
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	connectionStats := ms.getConnectionStats()
	clients := ms.getClientList()

	status := "healthy"
	if connectionStats.TotalConnected == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connectionStats,
		OnlineUsers: ms.hub.presence.ListOnline(),
		Clients:     clients,
		Delivery: model.DeliveryStats{
			Pushed:  ms.hub.pushed.Load(),
			Relayed: ms.hub.relayed.Load(),
			Dropped: ms.hub.dropped.Load(),
		},
	}
}

// getConnectionStats returns connection statistics
func (ms *MonitorService) getConnectionStats() model.ConnectionStats {
	ms.hub.clientsMu.RLock()
	defer ms.hub.clientsMu.RUnlock()

	return model.ConnectionStats{
		TotalConnected: len(ms.hub.clients),
		TotalOnline:    ms.hub.presence.Len(),
	}
}

// getClientList returns list of all connected clients
func (ms *MonitorService) getClientList() []model.ClientInfo {
	ms.hub.clientsMu.RLock()
	defer ms.hub.clientsMu.RUnlock()

	clients := make([]model.ClientInfo, 0, len(ms.hub.clients))

	for _, client := range ms.hub.clients {
		clients = append(clients, model.ClientInfo{
			ClientID: client.ID,
			UserID:   client.userID,
			Online:   ms.hub.presence.IsOnline(client.userID),
		})
	}

	return clients
}
