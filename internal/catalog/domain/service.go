package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CleaningService, error)
	List(ctx context.Context, req ListRequest) ([]CleaningService, error)
	Get(ctx context.Context, id string) (*CleaningService, error)
	GetMany(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]CleaningService, error)
	Update(ctx context.Context, req UpdateRequest) (*CleaningService, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	Name string
}

type CreateRequest struct {
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DurationDays *int            `json:"duration_days"`
}

type UpdateRequest struct {
	ID           string           `json:"-"`
	Name         *string          `json:"name"`
	Price        *decimal.Decimal `json:"price"`
	DurationDays *int             `json:"duration_days"`
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidDuration = errors.New("invalid_duration")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
	ErrServiceInUse    = errors.New("service_in_use")
)
