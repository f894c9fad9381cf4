package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) submitRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.submitLimiter.Enabled() {
			c.Next()
			return
		}

		allowed, err := s.submitLimiter.AllowClient(c.Request.Context(), c.ClientIP())
		if err != nil {
			s.log.Warn("submit rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !allowed {
			s.log.Warn("submit rate limit exceeded", zap.String("client_ip", c.ClientIP()))
			c.Header("Retry-After", "1")
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}
