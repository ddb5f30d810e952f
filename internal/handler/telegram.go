package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/models"
	"github.com/bhushanpardeshii/cribblebotbe/internal/service"
)

// GroupAnalyzer lists and analyzes the group conversations of the session.
type GroupAnalyzer interface {
	ListGroups(ctx context.Context) ([]models.Conversation, error)
	Analyze(ctx context.Context, ordinal int) (*service.Analysis, error)
}

type TelegramHandler interface {
	Groups(c *gin.Context)
	Analyze(c *gin.Context)
}

type telegramHandler struct {
	analyzer GroupAnalyzer
	logger   *zap.Logger
}

func NewTelegramHandler(analyzer GroupAnalyzer, logger *zap.Logger) TelegramHandler {
	return &telegramHandler{analyzer: analyzer, logger: logger}
}

// GroupIndex accepts a JSON number or a numeric string.
type GroupIndex int

func (g *GroupIndex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*g = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("groupIndex: %w", err)
		}
		*g = GroupIndex(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("groupIndex: %w", err)
	}
	*g = GroupIndex(n)
	return nil
}

type AnalyzeRequest struct {
	GroupIndex GroupIndex `json:"groupIndex"`
}

func (h *telegramHandler) Groups(c *gin.Context) {
	groups, err := h.analyzer.ListGroups(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotAuthenticated) {
			respondError(c, http.StatusUnauthorized, notAuthenticatedMessage)
			return
		}
		h.logger.Error("Error fetching groups", zap.Error(err))
		respondErrorDetails(c, http.StatusInternalServerError, "Failed to fetch groups", err)
		return
	}

	if groups == nil {
		groups = []models.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "groups": groups})
}

func (h *telegramHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	// An empty body carries no index; the analyzer reports it as missing.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Failed to bind JSON for analyze", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid group index")
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), int(req.GroupIndex))
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotAuthenticated):
		respondError(c, http.StatusUnauthorized, notAuthenticatedMessage)
		return
	case errors.Is(err, service.ErrGroupIndexRequired):
		respondError(c, http.StatusBadRequest, "Group index is required")
		return
	case errors.Is(err, service.ErrInvalidSelector):
		respondError(c, http.StatusBadRequest, "Invalid group index")
		return
	default:
		h.logger.Error("Error analyzing group", zap.Int("group_index", int(req.GroupIndex)), zap.Error(err))
		respondErrorDetails(c, http.StatusInternalServerError, "Failed to analyze group", err)
		return
	}

	resp := gin.H{
		"success":   true,
		"groupName": result.Group.Name,
		"data":      result.Report,
	}
	if result.Message != "" {
		resp["message"] = result.Message
	}
	c.JSON(http.StatusOK, resp)
}
