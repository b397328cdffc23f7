package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, svc *CleaningService) error
	Update(ctx context.Context, db *gorm.DB, svc *CleaningService) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CleaningService, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]CleaningService, error)
	FindAll(ctx context.Context, db *gorm.DB, name string) ([]CleaningService, error)
	CountItemReferences(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
