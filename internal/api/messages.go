package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ralph-xpert/internal/export"
	"ralph-xpert/internal/leads"
	"ralph-xpert/internal/models"
)

type MessageHandler struct {
	Leads  *leads.Service
	Logger *zap.Logger
}

func NewMessageHandler(svc *leads.Service, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{Leads: svc, Logger: logger}
}

// GetMessages supports ?q= and ?filter=all|unread|read|today.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	messages, err := h.Leads.Messages(c.Request.Context(), c.Query("q"), c.DefaultQuery("filter", leads.FilterAll))
	if err != nil {
		serviceError(c, h.Logger, err, "Message not found", "Failed to fetch messages")
		return
	}
	success(c, http.StatusOK, messages, "")
}

func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req leads.MessageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, leads.MsgRequiredFieldsMissing)
		return
	}

	m, err := h.Leads.AddMessage(c.Request.Context(), req)
	if err != nil {
		serviceError(c, h.Logger, err, "Message not found", "Failed to save message")
		return
	}
	success(c, http.StatusOK, m, "Message saved successfully")
}

func (h *MessageHandler) UpdateMessage(c *gin.Context) {
	var patch models.MessagePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		failure(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Leads.UpdateMessage(c.Request.Context(), c.Param("id"), patch); err != nil {
		serviceError(c, h.Logger, err, "Message not found", "Failed to update message")
		return
	}
	success(c, http.StatusOK, nil, "Message updated successfully")
}

func (h *MessageHandler) ToggleRead(c *gin.Context) {
	read, err := h.Leads.ToggleRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, h.Logger, err, "Message not found", "Failed to update message")
		return
	}
	success(c, http.StatusOK, gin.H{"id": c.Param("id"), "read": read}, "")
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	if err := h.Leads.DeleteMessage(c.Request.Context(), c.Param("id")); err != nil {
		serviceError(c, h.Logger, err, "Message not found", "Failed to delete message")
		return
	}
	success(c, http.StatusOK, nil, "Message deleted successfully")
}

func (h *MessageHandler) ExportCSV(c *gin.Context) {
	messages, err := h.Leads.ListMessages(c.Request.Context())
	if err != nil {
		serviceError(c, h.Logger, err, "Message not found", "Failed to generate CSV file")
		return
	}

	filename := export.Filename("messages", "csv", h.Leads.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(export.MessagesCSV(messages, h.Leads.Location())))
}
