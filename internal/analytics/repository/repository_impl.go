package repository

import (
	"context"

	"github.com/smallbiznis/shoecare/internal/analytics/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// completedItems selects items of completed orders, bounded by the order's
// completion time.
func completedItems(ctx context.Context, db *gorm.DB, bounds domain.Bounds) *gorm.DB {
	stmt := db.WithContext(ctx).
		Table("order_items AS i").
		Joins("JOIN orders AS o ON o.id = i.order_id").
		Joins("JOIN services AS s ON s.id = i.service_id").
		Where("o.status = ?", "COMPLETED").
		Where("o.completed_at IS NOT NULL")
	if bounds.Start != nil {
		stmt = stmt.Where("o.completed_at >= ?", bounds.Start.UTC())
	}
	if bounds.End != nil {
		stmt = stmt.Where("o.completed_at < ?", bounds.End.UTC())
	}
	return stmt
}

func expenses(ctx context.Context, db *gorm.DB, bounds domain.Bounds) *gorm.DB {
	stmt := db.WithContext(ctx).Table("expenses")
	if bounds.Start != nil {
		stmt = stmt.Where("spent_at >= ?", bounds.Start.UTC())
	}
	if bounds.End != nil {
		stmt = stmt.Where("spent_at < ?", bounds.End.UTC())
	}
	return stmt
}

func (r *repo) RevenueByMethod(ctx context.Context, db *gorm.DB, bounds domain.Bounds) ([]domain.RevenueByMethod, error) {
	var rows []domain.RevenueByMethod
	err := completedItems(ctx, db, bounds).
		Select("o.payment_method AS payment_method, COALESCE(SUM(s.price), 0) AS revenue, COUNT(i.id) AS items").
		Group("o.payment_method").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) RevenueByService(ctx context.Context, db *gorm.DB, bounds domain.Bounds, limit int) ([]domain.RevenueByService, error) {
	var rows []domain.RevenueByService
	stmt := completedItems(ctx, db, bounds).
		Select("s.id AS service_id, s.name AS name, COUNT(i.id) AS item_count, COALESCE(SUM(s.price), 0) AS revenue").
		Group("s.id, s.name").
		Order("item_count DESC, revenue DESC, s.name ASC")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) RevenueEntries(ctx context.Context, db *gorm.DB, bounds domain.Bounds) ([]domain.RevenueEntry, error) {
	var rows []domain.RevenueEntry
	err := completedItems(ctx, db, bounds).
		Select("o.completed_at AS completed_at, s.price AS price").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ExpenseByCategory(ctx context.Context, db *gorm.DB, bounds domain.Bounds) ([]domain.ExpenseByCategory, error) {
	var rows []domain.ExpenseByCategory
	err := expenses(ctx, db, bounds).
		Select("category, COALESCE(SUM(amount), 0) AS amount").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ExpenseBySubCategory(ctx context.Context, db *gorm.DB, bounds domain.Bounds) ([]domain.ExpenseBySubCategory, error) {
	var rows []domain.ExpenseBySubCategory
	err := expenses(ctx, db, bounds).
		Where("sub_category <> ''").
		Select("sub_category, COALESCE(SUM(amount), 0) AS amount, COUNT(1) AS entry_count").
		Group("sub_category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
