package configuration

import (
	"encoding/json"
	"os"
)

type MongoConfig struct {
	Uri                   string `json:"uri"`
	Database              string `json:"database"`
	MessagesCollection    string `json:"messagesCollection"`
	UsersCollection       string `json:"usersCollection"`
	ConnectionsCollection string `json:"connectionsCollection"`
	SocketRoute           string `json:"socketRoute"`
}

type ServerConfig struct {
	AppPort    int `json:"app_port"`
	SocketPort int `json:"socket_port"`
}

type Config struct {
	ChatDatabase MongoConfig  `json:"mongo"`
	Server       ServerConfig `json:"server"`
}

func LoadConfig(config_path string) (*Config, error) {
	file, err := os.ReadFile(config_path)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
