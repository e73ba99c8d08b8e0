package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

type MessageHandler struct {
	BaseHandler
	messageService services.MessageService
}

func NewMessageHandler(messageService services.MessageService, logger utils.Logger) *MessageHandler {
	return &MessageHandler{
		BaseHandler:    NewBaseHandler(logger),
		messageService: messageService,
	}
}

// SendMessage stores a direct message and pushes it to the recipient
// @Summary Send direct message
// @Tags messages
// @Accept json
// @Produce json
// @Param message body models.SendMessageRequest true "Recipient and text"
// @Success 201 {object} models.Message
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	senderID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), senderID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// Conversation returns the messages exchanged between two users, oldest first
// @Router /messages/{userId}/{contactId} [get]
func (h *MessageHandler) Conversation(c *gin.Context) {
	callerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	messages, err := h.messageService.Conversation(c.Request.Context(), callerID, c.Param("userId"), c.Param("contactId"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// Stream pushes the caller's incoming messages as server-sent events until
// the client disconnects
// @Produce text/event-stream
// @Router /messages/stream [get]
func (h *MessageHandler) Stream(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	messages, err := h.messageService.Subscribe(ctx, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Message stream opened", "user_id", userID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, open := <-messages:
			if !open {
				return false
			}
			kind := msg.Metadata.Get("kind")
			if kind == "" {
				kind = services.PrivateMessageKind
			}
			c.SSEvent(kind, string(msg.Payload))
			msg.Ack()
			return true
		}
	})

	h.log(c).Debug("Message stream closed", "user_id", userID)
}
