package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"DevMatch/internal/service"
)

type ChatHandler interface {
	ListChats(c *gin.Context)
	GetRoomMessages(c *gin.Context)
}

type chatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) ChatHandler {
	return &chatHandler{
		service: service,
	}
}

func (h *chatHandler) ListChats(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userId is required",
		})
		return
	}

	chats, err := h.service.ListChats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to list chats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chats": chats,
	})
}

func (h *chatHandler) GetRoomMessages(c *gin.Context) {
	roomID := c.Param("roomId")
	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid page number",
		})
		return
	}

	messages, err := h.service.GetRoomMessages(c.Request.Context(), roomID, pageNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to load messages",
		})
		return
	}

	c.JSON(http.StatusOK, messages)
}
