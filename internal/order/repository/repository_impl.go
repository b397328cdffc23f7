package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shoecare/internal/order/domain"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *repo) FindOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindItem(ctx context.Context, db *gorm.DB, orderID, itemID snowflake.ID) (*domain.OrderItem, error) {
	var item domain.OrderItem
	err := db.WithContext(ctx).
		Where("id = ? AND order_id = ?", itemID, orderID).
		Limit(1).
		Find(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListItemsByOrders(ctx context.Context, db *gorm.DB, orderIDs []snowflake.ID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	if len(orderIDs) == 0 {
		return items, nil
	}
	err := db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("order_id asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*domain.Order, error) {
	var orders []*domain.Order
	stmt := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("status <> ?", domain.StatusCompleted)
	stmt, err := pagination.Apply(stmt, page, "entered_at")
	if err != nil {
		return nil, err
	}
	if err := stmt.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) UpdateOrderStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, completedAt *time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, completed_at = ? WHERE id = ?`,
		status,
		completedAt,
		id,
	).Error
}

func (r *repo) UpdateItemStatus(ctx context.Context, db *gorm.DB, itemID snowflake.ID, status domain.Status, completedAt *time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE order_items SET status = ?, completed_at = ? WHERE id = ?`,
		status,
		completedAt,
		itemID,
	).Error
}

func (r *repo) UpdateItemAfterPhoto(ctx context.Context, db *gorm.DB, itemID snowflake.ID, key string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE order_items SET after_photo = ? WHERE id = ?`,
		key,
		itemID,
	).Error
}

func (r *repo) UpdateOrderSettlement(ctx context.Context, db *gorm.DB, id snowflake.ID, method domain.PaymentMethod, completedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, payment_method = ?, completed_at = ? WHERE id = ?`,
		domain.StatusCompleted,
		method,
		completedAt,
		id,
	).Error
}

func (r *repo) CompleteItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID, completedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE order_items SET status = ?, completed_at = ? WHERE order_id = ?`,
		domain.StatusCompleted,
		completedAt,
		orderID,
	).Error
}

func (r *repo) DeleteOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM order_items WHERE order_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM orders WHERE id = ?`, id).Error
	})
}
