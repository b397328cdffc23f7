package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/shoecare/internal/order/domain"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
)

type createOrderItem struct {
	ServiceID string `json:"service_id"`
	Brand     string `json:"brand"`
	Color     string `json:"color"`
	Note      string `json:"note"`
	// Photo names the multipart file field holding the before photo.
	Photo string `json:"photo"`
}

type updateItemStatusRequest struct {
	Status string `json:"status"`
}

type settleOrderRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type itemView struct {
	orderdomain.ItemDetail
	BeforePhotoURL string `json:"before_photo_url,omitempty"`
	AfterPhotoURL  string `json:"after_photo_url,omitempty"`
}

type orderView struct {
	*orderdomain.OrderDetail
	Items []itemView `json:"items"`
}

func (s *Server) viewOrder(detail *orderdomain.OrderDetail) orderView {
	view := orderView{OrderDetail: detail, Items: make([]itemView, 0, len(detail.Items))}
	for _, item := range detail.Items {
		iv := itemView{ItemDetail: item}
		if item.BeforePhoto != "" {
			iv.BeforePhotoURL = s.photos.URL(item.BeforePhoto)
		}
		if item.AfterPhoto != nil && *item.AfterPhoto != "" {
			iv.AfterPhotoURL = s.photos.URL(*item.AfterPhoto)
		}
		view.Items = append(view.Items, iv)
	}
	return view
}

// Dashboard lists orders that still have work outstanding.
func (s *Server) Dashboard(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.ListActive(c.Request.Context(), orderdomain.ListActiveRequest{
		Pagination: query,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateOrder(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	enteredAt, err := parseOptionalTime(c.PostForm("entered_at"), s.cfg.Location(), false)
	if err != nil {
		AbortWithError(c, newValidationError("entered_at", "invalid_entered_at", "invalid entered_at"))
		return
	}

	var items []createOrderItem
	if raw := strings.TrimSpace(c.PostForm("items")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			AbortWithError(c, newValidationError("items", "invalid_items", "items must be a JSON array"))
			return
		}
	}

	reqItems := make([]orderdomain.CreateItemRequest, 0, len(items))
	for i, item := range items {
		field := strings.TrimSpace(item.Photo)
		if field == "" {
			field = fmt.Sprintf("photo_%d", i)
		}
		photo, err := readFormFile(form, field)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		reqItems = append(reqItems, orderdomain.CreateItemRequest{
			ServiceID:   strings.TrimSpace(item.ServiceID),
			Brand:       strings.TrimSpace(item.Brand),
			Color:       strings.TrimSpace(item.Color),
			Note:        strings.TrimSpace(item.Note),
			BeforePhoto: photo,
		})
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		CustomerID:    strings.TrimSpace(c.PostForm("customer_id")),
		PaymentMethod: strings.TrimSpace(c.PostForm("payment_method")),
		EnteredAt:     enteredAt,
		Items:         reqItems,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.viewOrder(resp)})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	resp, err := s.orderSvc.GetDetail(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.viewOrder(resp)})
}

func (s *Server) DeleteOrder(c *gin.Context) {
	if err := s.orderSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) UpdateItemStatus(c *gin.Context) {
	var req updateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.UpdateItemStatus(c.Request.Context(), orderdomain.UpdateItemStatusRequest{
		OrderID: strings.TrimSpace(c.Param("id")),
		ItemID:  strings.TrimSpace(c.Param("item_id")),
		Status:  strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.viewOrder(resp)})
}

func (s *Server) AttachAfterPhoto(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	photo, err := readFormFile(form, "photo")
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.AttachAfterPhoto(c.Request.Context(), orderdomain.AttachAfterPhotoRequest{
		OrderID: strings.TrimSpace(c.Param("id")),
		ItemID:  strings.TrimSpace(c.Param("item_id")),
		Photo:   photo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.viewOrder(resp)})
}

func (s *Server) SettleOrder(c *gin.Context) {
	var req settleOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Settle(c.Request.Context(), orderdomain.SettleRequest{
		OrderID:       strings.TrimSpace(c.Param("id")),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.viewOrder(resp)})
}

func (s *Server) GetOrderReceipt(c *gin.Context) {
	detail, err := s.orderSvc.GetDetail(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pdf, err := s.receipts.Generate(c.Request.Context(), detail)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="receipt-%s.pdf"`, detail.ID.String()))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// readFormFile returns the contents of the named upload, or nil when absent.
func readFormFile(form *multipart.Form, field string) ([]byte, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes))
}
