package configuration

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Linuxthecoder/Nexverse-version3.0/internal/db"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/handler"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/hub"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/media"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/model"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/repo"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/service"
)

const defaultConfigPath = "config/config.json"

type Container struct {
	MessageHandler handler.MessageHandler
	Hub            *hub.Hub
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer() (*Container, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	con, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database)
	if err != nil {
		return nil, err
	}

	logger, _ := zap.NewProduction()

	messageRepo := repo.NewMessageRepository(
		db.NewRepository[model.Message](con, config.Mongo.MessagesCollection),
		logger,
	)
	userRepo := repo.NewUserRepository(
		db.NewRepository[model.User](con, config.Mongo.UsersCollection),
	)

	messageService := service.NewMessageService(messageRepo, userRepo, media.NewPassthrough(), logger)

	// Hub and coordinator reference each other: the coordinator pushes
	// newMessage through the hub, the hub applies seen receipts durably
	// through the coordinator.
	h := hub.NewHub(userRepo, logger, config.Server.AllowedOrigins)
	messageService.SetNotifier(h)
	h.SetReadMarker(messageService)

	messageHandler := handler.NewMessageHandler(messageService)

	return &Container{
		MessageHandler: messageHandler,
		Hub:            h,
		Config:         *config,
		Logger:         logger,
		mongoClient:    con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
