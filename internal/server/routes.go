package server

import (
	"github.com/Brownie44l1/riceleaf-api/internal/handlers"
	"github.com/Brownie44l1/riceleaf-api/internal/metrics"
	"github.com/gin-gonic/gin"
)

func (s *Server) SetupRoutes(h *handlers.Handler, m *metrics.Metrics) {
	s.ginEngine.GET("/health", h.Health)
	s.ginEngine.GET("/classes", h.Classes)
	s.ginEngine.POST("/predict", h.Predict)
	s.ginEngine.GET("/metrics", gin.WrapH(m.Handler()))
}
