package model

// MonitorResponse is the hub statistics snapshot served by the monitor
// endpoint.
type MonitorResponse struct {
	Status      string          `json:"status"`
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
	Clients     []ClientInfo    `json:"clients"`
}

type ConnectionStats struct {
	TotalConnections int `json:"totalConnections"`
	OnlineUsers      int `json:"onlineUsers"`
}

type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

type RoomInfo struct {
	RoomID       string   `json:"roomId"`
	TotalMembers int      `json:"totalMembers"`
	MemberIDs    []string `json:"memberIds"`
}

type ClientInfo struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	RoomID       string `json:"roomId"`
	State        string `json:"state"`
}
