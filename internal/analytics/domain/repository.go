package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bounds is a half-open UTC interval. Nil ends are unbounded.
type Bounds struct {
	Start *time.Time
	End   *time.Time
}

type RevenueByMethod struct {
	PaymentMethod string
	Revenue       decimal.Decimal
	Items         int64
}

type RevenueByService struct {
	ServiceID int64
	Name      string
	Count     int64 `gorm:"column:item_count"`
	Revenue   decimal.Decimal
}

type RevenueEntry struct {
	CompletedAt time.Time
	Price       decimal.Decimal
}

type ExpenseByCategory struct {
	Category string
	Amount   decimal.Decimal
}

type ExpenseBySubCategory struct {
	SubCategory string
	Amount      decimal.Decimal
	Count       int64 `gorm:"column:entry_count"`
}

type Repository interface {
	RevenueByMethod(ctx context.Context, db *gorm.DB, bounds Bounds) ([]RevenueByMethod, error)
	RevenueByService(ctx context.Context, db *gorm.DB, bounds Bounds, limit int) ([]RevenueByService, error)
	RevenueEntries(ctx context.Context, db *gorm.DB, bounds Bounds) ([]RevenueEntry, error)
	ExpenseByCategory(ctx context.Context, db *gorm.DB, bounds Bounds) ([]ExpenseByCategory, error)
	ExpenseBySubCategory(ctx context.Context, db *gorm.DB, bounds Bounds) ([]ExpenseBySubCategory, error)
}
