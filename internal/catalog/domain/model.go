package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const DefaultDurationDays = 3

// CleaningService is a priced treatment offered by the shop.
type CleaningService struct {
	ID           snowflake.ID    `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"type:text;not null"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(12,0);not null"`
	DurationDays int             `json:"duration_days" gorm:"not null;default:3"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"not null"`
}

func (CleaningService) TableName() string { return "services" }
