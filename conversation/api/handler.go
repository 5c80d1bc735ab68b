package api

import (
	"net/http"
	"strconv"

	"counseling-platform/backend/conversation/models"
	"counseling-platform/backend/conversation/service"
	"counseling-platform/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	messages *service.MessageService
	router   *service.MessageRouter
}

func NewConversationHandler(messages *service.MessageService, router *service.MessageRouter) *ConversationHandler {
	return &ConversationHandler{messages: messages, router: router}
}

// GetConversation returns one page of a (user, counselor) conversation
// in send order. limit and offset are optional query parameters.
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	userID, err := parseID(c.Query("user_id"))
	if err != nil {
		c.Error(errors.NewValidationError("invalid user_id"))
		return
	}
	counselorID, err := parseID(c.Query("counselor_id"))
	if err != nil {
		c.Error(errors.NewValidationError("invalid counselor_id"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.messages.GetConversation(userID, counselorID, limit, offset)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// GetByAppointment returns all messages tied to an appointment
func (h *ConversationHandler) GetByAppointment(c *gin.Context) {
	appointmentID, err := parseID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError("invalid appointment id"))
		return
	}

	messages, err := h.messages.GetByAppointment(appointmentID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage accepts a chat turn over HTTP and pushes it through the
// same routing path as a websocket turn
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	var in service.InboundMessage
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(errors.NewValidationError("invalid message payload"))
		return
	}

	if err := h.router.Route(c.Request.Context(), &in); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "routed"})
}

// UpdateReadStatus marks a single message read or unread
func (h *ConversationHandler) UpdateReadStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError("invalid message id"))
		return
	}

	var body struct {
		Read bool `json:"read"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errors.NewValidationError("invalid read status payload"))
		return
	}

	if err := h.messages.UpdateReadStatus(id, body.Read); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// BatchUpdateReadStatus marks a set of messages read or unread
func (h *ConversationHandler) BatchUpdateReadStatus(c *gin.Context) {
	var body struct {
		IDs  []uint `json:"ids"`
		Read bool   `json:"read"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errors.NewValidationError("invalid read status payload"))
		return
	}

	if err := h.messages.BatchUpdateReadStatus(body.IDs, body.Read); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "count": len(body.IDs)})
}

// UnreadCount returns the number of unread messages addressed to a party
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	receiverID, err := parseID(c.Query("receiver_id"))
	if err != nil {
		c.Error(errors.NewValidationError("invalid receiver_id"))
		return
	}
	kind := c.DefaultQuery("receiver_type", models.SenderUser)
	if !models.ValidSenderKind(kind) {
		c.Error(errors.NewValidationError("invalid receiver_type"))
		return
	}

	count, err := h.messages.UnreadCount(receiverID, kind)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// UserConversations lists a user's messages across all counselors
func (h *ConversationHandler) UserConversations(c *gin.Context) {
	userID, err := parseID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError("invalid user id"))
		return
	}

	messages, err := h.messages.UserConversations(userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// CounselorConversations lists a counselor's messages across all users
func (h *ConversationHandler) CounselorConversations(c *gin.Context) {
	counselorID, err := parseID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError("invalid counselor id"))
		return
	}

	messages, err := h.messages.CounselorConversations(counselorID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// RegisterRoutes registers conversation routes on the given group
func (h *ConversationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	messages := rg.Group("/messages")
	{
		messages.GET("", h.GetConversation)
		messages.POST("", h.SendMessage)
		messages.GET("/appointment/:id", h.GetByAppointment)
		messages.PUT("/:id/read", h.UpdateReadStatus)
		messages.PUT("/read", h.BatchUpdateReadStatus)
		messages.GET("/unread", h.UnreadCount)
		messages.GET("/user/:id", h.UserConversations)
		messages.GET("/counselor/:id", h.CounselorConversations)
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.NewValidationError("invalid id")
	}
	return uint(id), nil
}
