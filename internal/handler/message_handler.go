package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Linuxthecoder/Nexverse-version3.0/internal/auth"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/model"
	"github.com/Linuxthecoder/Nexverse-version3.0/internal/service"
)

// MessageHandler exposes the REST boundary the realtime core is reconciled
// against: contact list, history, send, bulk mark-as-read, unread counts.
type MessageHandler interface {
	GetContacts(c *gin.Context)
	GetHistory(c *gin.Context)
	SendMessage(c *gin.Context)
	MarkRead(c *gin.Context)
	GetUnreadCounts(c *gin.Context)
}

type messageHandler struct {
	service service.MessageService
}

func NewMessageHandler(service service.MessageService) MessageHandler {
	return &messageHandler{
		service: service,
	}
}

// GetContacts handles GET /messages/users - every user except the caller.
func (h *messageHandler) GetContacts(c *gin.Context) {
	users, err := h.service.Contacts(c.Request.Context(), auth.MustUserID(c))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalidUserID) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"message": "Failed to load users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetHistory handles GET /messages/:id - the conversation with user :id,
// oldest first. Live events observed before this response lands must win;
// the client session state is responsible for that merge.
func (h *messageHandler) GetHistory(c *gin.Context) {
	peerID := c.Param("id")

	// a session carrying a malformed id is a login problem, not a bad chat
	// selection
	selfID := auth.MustUserID(c)
	if _, err := primitive.ObjectIDFromHex(selfID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid session. Please log in again."})
		return
	}

	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid page number"})
		return
	}

	result, err := h.service.History(c.Request.Context(), selfID, peerID, pageNumber)
	if err != nil {
		if errors.Is(err, model.ErrInvalidUserID) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID. Please select a valid chat."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, result.Data)
}

// SendMessage handles POST /messages/send/:id. The response is the persisted
// message; delivery and seen status reach the sender only via bus receipts.
func (h *messageHandler) SendMessage(c *gin.Context) {
	var in service.SendMessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), auth.MustUserID(c), c.Param("id"), in)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a message, image, or video."})
		case errors.Is(err, model.ErrTextTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Message text is too long."})
		case errors.Is(err, model.ErrInvalidUserID):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID. Please select a valid chat."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send message"})
		}
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// MarkRead handles POST /messages/read/:id - bulk read transition for every
// unread message from user :id to the caller.
func (h *messageHandler) MarkRead(c *gin.Context) {
	_, err := h.service.MarkConversationRead(c.Request.Context(), c.Param("id"), auth.MustUserID(c))
	if err != nil {
		if errors.Is(err, model.ErrInvalidUserID) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID. Please select a valid chat."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to mark messages as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read."})
}

// GetUnreadCounts handles GET /messages/unread-counts. Never fails: the
// service degrades to an empty result.
func (h *messageHandler) GetUnreadCounts(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.UnreadCounts(c.Request.Context(), auth.MustUserID(c)))
}
