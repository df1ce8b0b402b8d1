package hub

import "DevMatch/internal/model"

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
	roomStats := ms.getRoomStats()
	clients := ms.getClientList()

	status := "healthy"
	if connectionStats.TotalConnections == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connectionStats,
		Rooms:       roomStats,
		Clients:     clients,
	}
}

func (ms *MonitorService) getConnectionStats() model.ConnectionStats {
	return model.ConnectionStats{
		TotalConnections: ms.hub.presence.ConnectionCount(),
		OnlineUsers:      len(ms.hub.presence.OnlineUsers()),
	}
}

func (ms *MonitorService) getRoomStats() model.RoomStats {
	details := ms.hub.rooms.Snapshot()
	return model.RoomStats{
		TotalRooms:  len(details),
		RoomDetails: details,
	}
}

func (ms *MonitorService) getClientList() []model.ClientInfo {
	ms.hub.clientsMu.RLock()
	defer ms.hub.clientsMu.RUnlock()

	clients := make([]model.ClientInfo, 0, len(ms.hub.clients))
	for _, c := range ms.hub.clients {
		session := c.Session()
		clients = append(clients, model.ClientInfo{
			ConnectionID: c.ConnectionID(),
			UserID:       session.SessionUserID(),
			RoomID:       session.RoomKey(),
			State:        session.State().String(),
		})
	}
	return clients
}
