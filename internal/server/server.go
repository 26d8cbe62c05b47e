package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Brownie44l1/riceleaf-api/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	listenAddr string
	ginEngine  *gin.Engine
	inner      *http.Server
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(getGinMode(cfg.Environment))
	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	r.Use(RequestID())
	r.Use(logger.SetLogger(
		logger.WithUTC(true),
		logger.WithSkipPath([]string{"/health", "/metrics"}),
	))

	r.Use(cors.New(
		cors.Config{
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowOrigins: []string{"*"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", requestIDHeader},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        300 * time.Second,
		},
	))

	if cfg.PublicDir != "" {
		if info, err := os.Stat(cfg.PublicDir); err == nil && info.IsDir() {
			r.Use(static.Serve("/", static.LocalFile(cfg.PublicDir, true)))
		} else {
			log.Warn("public dir not found, frontend disabled", zap.String("dir", cfg.PublicDir))
		}
	}
	r.Use(gin.Recovery())

	return &Server{
		listenAddr: cfg.Addr(),
		ginEngine:  r,
		logger:     log,
		inner: &http.Server{
			Handler:           r,
			Addr:              cfg.Addr(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Server) Engine() *gin.Engine {
	return s.ginEngine
}

func (s *Server) Start() error {
	s.logger.Info("server starting", zap.String("addr", s.listenAddr))

	if err := s.inner.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s.logger.Info("stopping server")

	return s.inner.Shutdown(ctx)
}

func getGinMode(env string) string {
	switch env {
	case "dev":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
