package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shoecare/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, svc *domain.CleaningService) error {
	return db.WithContext(ctx).Create(svc).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, svc *domain.CleaningService) error {
	return db.WithContext(ctx).
		Model(&domain.CleaningService{}).
		Where("id = ?", svc.ID).
		Updates(map[string]any{
			"name":          svc.Name,
			"price":         svc.Price,
			"duration_days": svc.DurationDays,
			"updated_at":    svc.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM services WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CleaningService, error) {
	var item domain.CleaningService
	err := db.WithContext(ctx).
		Where("id = ?", id).
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

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.CleaningService, error) {
	var items []domain.CleaningService
	if len(ids) == 0 {
		return items, nil
	}
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB, name string) ([]domain.CleaningService, error) {
	var items []domain.CleaningService
	stmt := db.WithContext(ctx).Model(&domain.CleaningService{})
	if name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+name+"%")
	}
	if err := stmt.Order("name asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountItemReferences(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM order_items WHERE service_id = ?`,
		id,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
