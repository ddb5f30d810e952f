package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/service"
)

// Authenticator is the login flow used by AuthHandler.
type Authenticator interface {
	RequestCode(ctx context.Context, phone string) error
	ConfirmCode(ctx context.Context, phone, code, password string) error
	Logout(ctx context.Context) error
	Status() service.SessionStatus
}

type AuthHandler interface {
	SendCode(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Status(c *gin.Context)
}

type authHandler struct {
	auth   Authenticator
	logger *zap.Logger
}

func NewAuthHandler(auth Authenticator, logger *zap.Logger) AuthHandler {
	return &authHandler{auth: auth, logger: logger}
}

type SendCodeRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Code        string `json:"code"`
	Password    string `json:"password"`
}

func (h *authHandler) SendCode(c *gin.Context) {
	var req SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind JSON for send-code", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.auth.RequestCode(c.Request.Context(), req.PhoneNumber)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, service.ErrPhoneRequired):
		respondError(c, http.StatusBadRequest, "Phone number is required")
	default:
		h.logger.Error("Failed to send code", zap.String("phone", req.PhoneNumber), zap.Error(err))
		respondError(c, authStatus(err), platformMessage(err, "Failed to send code"))
	}
}

func (h *authHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind JSON for login", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.auth.ConfirmCode(c.Request.Context(), req.PhoneNumber, req.Code, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, service.ErrPhoneRequired):
		respondError(c, http.StatusBadRequest, "Phone number is required")
	case errors.Is(err, service.ErrCodeRequired):
		respondError(c, http.StatusBadRequest, "Verification code is required")
	case errors.Is(err, service.ErrNoPendingChallenge):
		respondError(c, http.StatusBadRequest, "Please send code first")
	default:
		h.logger.Error("Login failed", zap.String("phone", req.PhoneNumber), zap.Error(err))
		respondError(c, authStatus(err), platformMessage(err, "Login failed"))
	}
}

func (h *authHandler) Logout(c *gin.Context) {
	err := h.auth.Logout(c.Request.Context())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, service.ErrNotAuthenticated):
		respondError(c, http.StatusUnauthorized, notAuthenticatedMessage)
	default:
		h.logger.Error("Failed to logout", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to logout")
	}
}

func (h *authHandler) Status(c *gin.Context) {
	status := h.auth.Status()
	resp := gin.H{"success": true, "authenticated": status.Authenticated}
	if status.Authenticated {
		resp["phoneNumber"] = status.Phone
		resp["authenticatedAt"] = status.AuthenticatedAt
	}
	c.JSON(http.StatusOK, resp)
}
