package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TrackOrder is the unauthenticated status page linked from receipts.
func (s *Server) TrackOrder(c *gin.Context) {
	resp, err := s.orderSvc.Track(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
