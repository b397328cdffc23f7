package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) ServePhoto(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	rc, err := s.photos.Open(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "private, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, "image/jpeg", rc, nil)
}
