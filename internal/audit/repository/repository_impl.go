package repository

import (
	"context"

	"github.com/smallbiznis/shoecare/internal/audit/domain"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.AuditLog, error) {
	stmt, err := pagination.Apply(
		db.WithContext(ctx).Model(&domain.AuditLog{}).Scopes(matching(filter)),
		page, "created_at",
	)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}

	var entries []*domain.AuditLog
	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// matching narrows the trail to the non-empty filter fields.
func matching(filter domain.ListFilter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		for column, value := range map[string]string{
			"action":      filter.Action,
			"target_type": filter.TargetType,
			"target_id":   filter.TargetID,
		} {
			if value != "" {
				tx = tx.Where(column+" = ?", value)
			}
		}
		if filter.StartAt != nil {
			tx = tx.Where("created_at >= ?", filter.StartAt.UTC())
		}
		if filter.EndAt != nil {
			tx = tx.Where("created_at <= ?", filter.EndAt.UTC())
		}
		return tx
	}
}
