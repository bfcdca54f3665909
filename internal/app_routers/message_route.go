package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/Linuxthecoder/Nexverse-version3.0/internal/auth"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/configuration"
)

func MessageRouters(router *gin.Engine, container *configuration.Container) {
	messageRoute := router.Group("/api/messages")
	messageRoute.Use(auth.RequireSession(container.Config.Auth.JWTSecret))
	{
		messageRoute.GET("/users", container.MessageHandler.GetContacts)
		messageRoute.GET("/unread-counts", container.MessageHandler.GetUnreadCounts)
		messageRoute.POST("/read/:id", container.MessageHandler.MarkRead)
		messageRoute.POST("/send/:id", container.MessageHandler.SendMessage)
		messageRoute.GET("/:id", container.MessageHandler.GetHistory)
	}
}
