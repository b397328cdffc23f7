package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/shoecare/internal/customer/domain"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
)

// customerView adds the human-readable number shown at the counter.
type customerView struct {
	customerdomain.Customer
	WhatsAppDisplay string `json:"whatsapp_display"`
}

func viewCustomer(customer customerdomain.Customer) customerView {
	return customerView{
		Customer:        customer,
		WhatsAppDisplay: customerdomain.DisplayWhatsApp(customer.WhatsApp),
	}
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var body struct {
		Name     string `json:"name"`
		WhatsApp string `json:"whatsapp"`
		Address  string `json:"address"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customer, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Name:     body.Name,
		WhatsApp: body.WhatsApp,
		Address:  body.Address,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "customer.create", customer.ID.String(), map[string]any{
		"name":     customer.Name,
		"whatsapp": customer.WhatsApp,
	})
	c.JSON(http.StatusOK, gin.H{"data": viewCustomer(customer)})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Search string `form:"q"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	page, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Query:     query.Search,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	customers := make([]customerView, 0, len(page.Customers))
	for _, customer := range page.Customers {
		customers = append(customers, viewCustomer(customer))
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"customers":       customers,
		"has_more":        page.HasMore,
		"next_page_token": page.NextPageToken,
	}})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	customer, err := s.customerSvc.GetByID(c.Request.Context(), customerdomain.GetCustomerRequest{ID: c.Param("id")})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": viewCustomer(customer)})
}
