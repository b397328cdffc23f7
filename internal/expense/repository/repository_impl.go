package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shoecare/internal/expense/domain"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, expense *domain.Expense) error {
	return db.WithContext(ctx).Create(expense).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Expense, error) {
	var expense domain.Expense
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&expense).Error
	if err != nil {
		return nil, err
	}
	if expense.ID == 0 {
		return nil, nil
	}
	return &expense, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Expense, error) {
	var expenses []*domain.Expense
	stmt := db.WithContext(ctx).Model(&domain.Expense{})
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.From != nil {
		stmt = stmt.Where("spent_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		stmt = stmt.Where("spent_at < ?", filter.To.UTC())
	}
	stmt, err := pagination.Apply(stmt, page, "spent_at")
	if err != nil {
		return nil, err
	}
	if err := stmt.Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM expenses WHERE id = ?`, id).Error
}
