package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ralph-xpert/internal/leads"
)

type StatsHandler struct {
	Leads  *leads.Service
	Logger *zap.Logger
}

func NewStatsHandler(svc *leads.Service, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{Leads: svc, Logger: logger}
}

func (h *StatsHandler) GetStats(c *gin.Context) {
	st, err := h.Leads.Stats(c.Request.Context())
	if err != nil {
		serviceError(c, h.Logger, err, "Not found", "Failed to fetch statistics")
		return
	}
	success(c, http.StatusOK, st, "")
}
