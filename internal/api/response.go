package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ralph-xpert/internal/leads"
	"ralph-xpert/internal/store"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func success(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Response{Success: true, Data: data, Message: message})
}

func failure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: message})
}

// serviceError maps leads and store errors onto status codes.
func serviceError(c *gin.Context, logger *zap.Logger, err error, notFound, fallback string) {
	var verr *leads.ValidationError
	switch {
	case errors.As(err, &verr):
		failure(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, store.ErrNotFound):
		failure(c, http.StatusNotFound, notFound)
	default:
		logger.Error(fallback, zap.Error(err), zap.String("path", c.Request.URL.Path))
		_ = c.Error(err)
		failure(c, http.StatusInternalServerError, fallback)
	}
}
