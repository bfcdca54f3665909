package configuration

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type MongoConfig struct {
	Uri                string `json:"uri"`
	Database           string `json:"database"`
	MessagesCollection string `json:"messagesCollection"`
	UsersCollection    string `json:"usersCollection"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type ChatConfig struct {
	SocketRoute string `json:"socketRoute"`
}

type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

type Config struct {
	Mongo  MongoConfig  `json:"mongo"`
	Server ServerConfig `json:"server"`
	Chat   ChatConfig   `json:"chat"`
	Auth   AuthConfig   `json:"auth"`
}

// LoadConfig reads the JSON config file, then applies environment overrides.
// A .env file is honored when present; secrets normally arrive that way
// rather than in the checked-in config.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MONGO_URI"); v != "" {
		config.Mongo.Uri = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Server.AppPort = p
		}
	}
	if v := os.Getenv("SOCKET_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Server.SocketPort = p
		}
	}

	return &config, nil
}
