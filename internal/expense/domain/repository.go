package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Category Category
	From     *time.Time
	To       *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, expense *Expense) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Expense, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Expense, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
