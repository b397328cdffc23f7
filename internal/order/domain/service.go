package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (*OrderDetail, error)
	GetDetail(ctx context.Context, id string) (*OrderDetail, error)
	ListActive(ctx context.Context, req ListActiveRequest) (ListActiveResponse, error)
	UpdateItemStatus(ctx context.Context, req UpdateItemStatusRequest) (*OrderDetail, error)
	AttachAfterPhoto(ctx context.Context, req AttachAfterPhotoRequest) (*OrderDetail, error)
	Settle(ctx context.Context, req SettleRequest) (*OrderDetail, error)
	Delete(ctx context.Context, id string) error
	Track(ctx context.Context, id string) (*TrackView, error)
}

// PhotoStore persists item photos and returns their storage keys.
type PhotoStore interface {
	Save(ctx context.Context, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

type ReadyNotice struct {
	OrderID      snowflake.ID
	CustomerName string
	WhatsApp     string
	ItemCount    int
	Total        decimal.Decimal
}

// Notifier tells a customer their order can be picked up.
type Notifier interface {
	OrderReady(ctx context.Context, notice ReadyNotice) error
}

type CreateOrderRequest struct {
	CustomerID    string
	PaymentMethod string
	EnteredAt     *time.Time
	Items         []CreateItemRequest
}

type CreateItemRequest struct {
	ServiceID   string
	Brand       string
	Color       string
	Note        string
	BeforePhoto []byte
}

type ListActiveRequest struct {
	pagination.Pagination
}

type ListActiveResponse struct {
	pagination.PageInfo
	Orders []OrderSummary `json:"orders"`
}

type UpdateItemStatusRequest struct {
	OrderID string
	ItemID  string
	Status  string
}

type AttachAfterPhotoRequest struct {
	OrderID string
	ItemID  string
	Photo   []byte
}

// SettleRequest records payment for an order. A zero Now uses the clock.
type SettleRequest struct {
	OrderID       string
	PaymentMethod string
	Now           time.Time
}

type ItemDetail struct {
	OrderItem
	ServiceName string          `json:"service_name"`
	Price       decimal.Decimal `json:"price"`
}

type OrderDetail struct {
	Order
	CustomerName     string          `json:"customer_name"`
	CustomerWhatsApp string          `json:"customer_whatsapp"`
	Items            []ItemDetail    `json:"items"`
	Deadline         Deadline        `json:"deadline"`
	Total            decimal.Decimal `json:"total"`
}

type OrderSummary struct {
	Order
	CustomerName string   `json:"customer_name"`
	ItemCount    int      `json:"item_count"`
	Deadline     Deadline `json:"deadline"`
}

type TrackItem struct {
	ServiceName string `json:"service_name"`
	Brand       string `json:"brand"`
	Color       string `json:"color"`
	Status      Status `json:"status"`
}

// TrackView is the public projection of an order. It carries no contact data.
type TrackView struct {
	OrderID      string      `json:"order_id"`
	CustomerName string      `json:"customer_name"`
	Status       Status      `json:"status"`
	EnteredAt    time.Time   `json:"entered_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	Deadline     Deadline    `json:"deadline"`
	Items        []TrackItem `json:"items"`
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("not_found")
	ErrItemNotFound         = errors.New("item_not_found")
	ErrCustomerRequired     = errors.New("customer_required")
	ErrCustomerNotFound     = errors.New("customer_not_found")
	ErrItemsRequired        = errors.New("items_required")
	ErrServiceRequired      = errors.New("service_required")
	ErrServiceNotFound      = errors.New("service_not_found")
	ErrBeforePhotoRequired  = errors.New("before_photo_required")
	ErrAfterPhotoRequired   = errors.New("after_photo_required")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidPaymentMethod = errors.New("invalid_payment_method")
	ErrOrderCompleted       = errors.New("order_completed")
	ErrSettlementRequired   = errors.New("settlement_required")
	ErrSettlementFailed     = errors.New("settlement_failed")
)
