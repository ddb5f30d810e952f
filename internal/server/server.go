package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/handler"
	"github.com/bhushanpardeshii/cribblebotbe/internal/middleware"
	"github.com/bhushanpardeshii/cribblebotbe/internal/service"
)

// Server serves the sentiment API.
type Server struct {
	router   *gin.Engine
	srv      *http.Server
	auth     *service.AuthService
	analyzer *service.Analyzer
	logger   *zap.Logger
}

// NewServer creates a server listening on port.
func NewServer(port string, auth *service.AuthService, analyzer *service.Analyzer, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())

	s := &Server{
		router:   router,
		auth:     auth,
		analyzer: analyzer,
		logger:   logger,
	}
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	authHandler := handler.NewAuthHandler(s.auth, s.logger)
	telegramHandler := handler.NewTelegramHandler(s.analyzer, s.logger)

	api := s.router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Telegram Sentiment API is running",
		})
	})
	api.POST("/send-code", authHandler.SendCode)
	api.POST("/login", authHandler.Login)
	api.GET("/status", authHandler.Status)

	authRequired := api.Group("")
	authRequired.Use(middleware.RequireSession(s.auth, s.logger))
	{
		authRequired.POST("/logout", authHandler.Logout)
		authRequired.GET("/groups", telegramHandler.Groups)
		authRequired.POST("/analyze", telegramHandler.Analyze)
	}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("Server starting", zap.String("address", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
