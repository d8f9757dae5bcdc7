// Package api exposes the lead-capture and admin endpoints over gin.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ralph-xpert/internal/auth"
	"ralph-xpert/internal/config"
	"ralph-xpert/internal/leads"
	"ralph-xpert/internal/logging"
	"ralph-xpert/internal/ws"
)

type Deps struct {
	Leads  *leads.Service
	Auth   *auth.Authenticator
	Hub    *ws.Hub
	Logger *zap.Logger
}

// OriginChecker builds the websocket origin check from the CORS list.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		return originAllowed(r.Header.Get("Origin"), allowed)
	}
}

func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinLogger(logger))
	r.Use(CORS(cfg.AllowedOrigins))

	authHandler := NewAuthHandler(deps.Auth, cfg.IsProduction(), logger)
	contactHandler := NewContactHandler(deps.Leads, logger)
	messageHandler := NewMessageHandler(deps.Leads, logger)
	statsHandler := NewStatsHandler(deps.Leads, logger)

	requireAdmin := RequireAdmin(deps.Auth)
	limiter := NewRateLimiter(cfg.RateLimitPerMinute).Middleware()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/login", limiter, authHandler.Login)
			authGroup.GET("/verify", authHandler.Verify)
			authGroup.POST("/logout", authHandler.Logout)
		}

		apiGroup.GET("/stats", statsHandler.GetStats)

		// Contacts
		apiGroup.POST("/contacts", limiter, contactHandler.CreateContact)
		apiGroup.GET("/contacts", requireAdmin, contactHandler.GetContacts)
		apiGroup.DELETE("/contacts", requireAdmin, contactHandler.DeleteAllContacts)
		if cfg.PublicSearch {
			apiGroup.GET("/contacts/search", contactHandler.SearchContacts)
		} else {
			apiGroup.GET("/contacts/search", requireAdmin, contactHandler.SearchContacts)
		}
		apiGroup.GET("/contacts/download", requireAdmin, contactHandler.DownloadVCF)
		apiGroup.PUT("/contacts/:id", requireAdmin, contactHandler.UpdateContact)
		apiGroup.DELETE("/contacts/:id", requireAdmin, contactHandler.DeleteContact)

		// Messages
		apiGroup.POST("/messages", limiter, messageHandler.CreateMessage)
		apiGroup.GET("/messages", requireAdmin, messageHandler.GetMessages)
		apiGroup.GET("/messages/export", requireAdmin, messageHandler.ExportCSV)
		apiGroup.PUT("/messages/:id", requireAdmin, messageHandler.UpdateMessage)
		apiGroup.POST("/messages/:id/toggle-read", requireAdmin, messageHandler.ToggleRead)
		apiGroup.DELETE("/messages/:id", requireAdmin, messageHandler.DeleteMessage)

		if deps.Hub != nil {
			apiGroup.GET("/ws", requireAdmin, func(c *gin.Context) {
				if admin, ok := CurrentAdmin(c); ok {
					logger.Debug("Dashboard connecting to change feed", zap.String("username", admin.Username))
				}
				deps.Hub.ServeWs(c.Writer, c.Request)
			})
		}
	}

	return r
}
