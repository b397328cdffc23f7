package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertOrder(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	FindOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindItem(ctx context.Context, db *gorm.DB, orderID, itemID snowflake.ID) (*OrderItem, error)
	ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderItem, error)
	ListItemsByOrders(ctx context.Context, db *gorm.DB, orderIDs []snowflake.ID) ([]OrderItem, error)
	ListActive(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, completedAt *time.Time) error
	UpdateItemStatus(ctx context.Context, db *gorm.DB, itemID snowflake.ID, status Status, completedAt *time.Time) error
	UpdateItemAfterPhoto(ctx context.Context, db *gorm.DB, itemID snowflake.ID, key string) error
	UpdateOrderSettlement(ctx context.Context, db *gorm.DB, id snowflake.ID, method PaymentMethod, completedAt time.Time) error
	CompleteItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID, completedAt time.Time) error
	DeleteOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
