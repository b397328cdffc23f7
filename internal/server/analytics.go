package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/shoecare/internal/analytics/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) GetAnalytics(c *gin.Context) {
	var req analyticsdomain.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.analyticsSvc.Report(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ExportAnalytics renders the report as a workbook. The file is buffered so
// a failure still produces a JSON error instead of a truncated download.
func (s *Server) ExportAnalytics(c *gin.Context) {
	var req analyticsdomain.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var buf bytes.Buffer
	if err := s.analyticsSvc.Export(c.Request.Context(), req, &buf); err != nil {
		AbortWithError(c, err)
		return
	}

	filter := req.Filter
	if filter == "" {
		filter = "month"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="laporan-%s.xlsx"`, filter))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
