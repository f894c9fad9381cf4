package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListServices(c *gin.Context) {
	services, err := s.catalogRepo.List(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"count":    len(services),
		"services": services,
	})
}
