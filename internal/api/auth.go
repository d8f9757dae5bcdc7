package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ralph-xpert/internal/auth"
)

type AuthHandler struct {
	Auth         *auth.Authenticator
	SecureCookie bool
	Logger       *zap.Logger
}

func NewAuthHandler(a *auth.Authenticator, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Auth: a, SecureCookie: secureCookie, Logger: logger}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) setCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, token, maxAge, "/", "", h.SecureCookie, true)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, session, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		failure(c, http.StatusBadRequest, "Username and password are required")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		failure(c, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		h.Logger.Error("Login failed", zap.Error(err))
		failure(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.setCookie(c, token, int(h.Auth.TTL().Seconds()))
	success(c, http.StatusOK, gin.H{"username": session.Username, "token": token}, "Login successful")
}

func (h *AuthHandler) Verify(c *gin.Context) {
	session, err := h.Auth.Verify(tokenFromRequest(c))
	if errors.Is(err, auth.ErrNoToken) {
		failure(c, http.StatusUnauthorized, "No token provided")
		return
	}
	if err != nil {
		failure(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	success(c, http.StatusOK, gin.H{"username": session.Username, "loginTime": session.LoginTime}, "")
}

// Logout always clears the cookie; a valid token is also revoked.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := tokenFromRequest(c); token != "" {
		if err := h.Auth.Revoke(token); err != nil {
			h.Logger.Debug("Logout with unusable token", zap.Error(err))
		}
	}
	h.setCookie(c, "", -1)
	success(c, http.StatusOK, nil, "Logged out")
}
