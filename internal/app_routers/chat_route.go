package approuters

import (
	"github.com/gin-gonic/gin"

	"DevMatch/internal/configuration"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/dm/api/chats")
	{
		chatRoute.GET("", container.ChatHandler.ListChats)
		chatRoute.GET("/:roomId/messages", container.ChatHandler.GetRoomMessages)
	}
}
