package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bhushanpardeshii/cribblebotbe/internal/service"
)

const notAuthenticatedMessage = "Not authenticated. Please login first."

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

func respondErrorDetails(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{"success": false, "error": message, "details": err.Error()})
}

// platformMessage returns the platform's own error text, or fallback.
func platformMessage(err error, fallback string) string {
	var upErr *service.UpstreamError
	if errors.As(err, &upErr) && upErr.Message != "" {
		return upErr.Message
	}
	return fallback
}

// authStatus maps errors raised while logging in. Platform rejections are
// the caller's problem there, so they map to 400.
func authStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNoPendingChallenge):
		return http.StatusBadRequest
	}
	var upErr *service.UpstreamError
	if errors.As(err, &upErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
