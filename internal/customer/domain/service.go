package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/shoecare/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken string
	PageSize  int
	Query     string
}

// ListCustomerFilter matches Query against name and number, or
// WhatsAppPrefix against the stored number only.
type ListCustomerFilter struct {
	Query          string
	WhatsAppPrefix string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name     string
	WhatsApp string
	Address  string
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidWhatsApp   = errors.New("invalid_whatsapp")
	ErrDuplicateWhatsApp = errors.New("duplicate_whatsapp")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("not_found")
)
