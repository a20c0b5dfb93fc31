// Package server exposes the operational HTTP endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xaenox/attendant-bot/internal/models"
	"go.uber.org/zap"
)

type Attendance interface {
	Stats() models.AttendanceStats
	SweepExpired() int
	ActiveBlocks() []models.AttendanceBlock
}

type Connection interface {
	IsConnected() bool
}

type Conversations interface {
	Len() int
}

type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func New(addr string, attendance Attendance, conn Connection, conversations Conversations, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           newRouter(attendance, conn, conversations, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func newRouter(attendance Attendance, conn Connection, conversations Conversations, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		if !conn.IsConnected() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "connected": conn.IsConnected()})
	})

	r.GET("/stats", func(c *gin.Context) {
		stats := attendance.Stats()
		c.JSON(http.StatusOK, gin.H{
			"total_users":          stats.TotalUsers,
			"active_blocks":        stats.ActiveBlocks,
			"leads":                stats.Leads,
			"active_conversations": conversations.Len(),
		})
	})

	r.GET("/attendance", func(c *gin.Context) {
		attendance.SweepExpired()
		c.JSON(http.StatusOK, gin.H{"blocks": attendance.ActiveBlocks()})
	})

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
