package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateExpenseRequest) (*Expense, error)
	List(ctx context.Context, req ListExpenseRequest) (ListExpenseResponse, error)
	Delete(ctx context.Context, id string) error
}

type CreateExpenseRequest struct {
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category"`
	Amount      decimal.Decimal `json:"amount"`
	SpentAt     *time.Time      `json:"spent_at"`
	Note        string          `json:"note"`
}

// ListExpenseRequest filters by half-open [From, To) spend time.
type ListExpenseRequest struct {
	pagination.Pagination
	Category string
	From     *time.Time
	To       *time.Time
}

type ListExpenseResponse struct {
	pagination.PageInfo
	Expenses []Expense `json:"expenses"`
}

var (
	ErrInvalidCategory  = errors.New("invalid_category")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)
