package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMaterials   Category = "MATERIALS"
	CategoryPayroll     Category = "PAYROLL"
	CategoryOperational Category = "OPERATIONAL"
	CategoryMarketing   Category = "MARKETING"
	CategoryOther       Category = "OTHER"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryMaterials,
	CategoryPayroll,
	CategoryOperational,
	CategoryMarketing,
	CategoryOther,
}

func ParseCategory(value string) (Category, error) {
	category := Category(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range Categories {
		if category == known {
			return category, nil
		}
	}
	return "", ErrInvalidCategory
}

type Expense struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	Category    Category        `gorm:"type:varchar(16);not null;index" json:"category"`
	SubCategory string          `gorm:"not null;default:''" json:"sub_category,omitempty"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,0);not null" json:"amount"`
	SpentAt     time.Time       `gorm:"not null;index" json:"spent_at"`
	Note        string          `gorm:"not null;default:''" json:"note,omitempty"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
}

func (Expense) TableName() string { return "expenses" }
