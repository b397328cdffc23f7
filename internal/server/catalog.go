package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/shoecare/internal/catalog/domain"
)

type createServiceRequest struct {
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DurationDays *int            `json:"duration_days"`
}

type updateServiceRequest struct {
	Name         *string          `json:"name"`
	Price        *decimal.Decimal `json:"price"`
	DurationDays *int             `json:"duration_days"`
}

func (s *Server) CreateService(c *gin.Context) {
	var req createServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Create(c.Request.Context(), catalogdomain.CreateRequest{
		Name:         strings.TrimSpace(req.Name),
		Price:        req.Price,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditService(c, "service.create", resp)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListServices(c *gin.Context) {
	var query struct {
		Name string `form:"name"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListRequest{
		Name: strings.TrimSpace(query.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetServiceByID(c *gin.Context) {
	resp, err := s.catalogSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateService(c *gin.Context) {
	var req updateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Update(c.Request.Context(), catalogdomain.UpdateRequest{
		ID:           strings.TrimSpace(c.Param("id")),
		Name:         req.Name,
		Price:        req.Price,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditService(c, "service.update", resp)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteService(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.catalogSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "service.delete", id, nil)

	c.Status(http.StatusNoContent)
}

func (s *Server) auditService(c *gin.Context, action string, svc *catalogdomain.CleaningService) {
	if svc == nil {
		return
	}
	s.recordAudit(c, action, svc.ID.String(), map[string]any{
		"name":          svc.Name,
		"price":         svc.Price.String(),
		"duration_days": svc.DurationDays,
	})
}
