package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/shoecare/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/shoecare/internal/customer/domain"
)

type Order struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID    snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(16);not null;default:'UNPAID'" json:"payment_method"`
	Status        Status        `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	EnteredAt     time.Time     `gorm:"not null;index" json:"entered_at"`
	CompletedAt   *time.Time    `gorm:"index" json:"completed_at,omitempty"`

	Customer *customerdomain.Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID     snowflake.ID `gorm:"not null;index" json:"order_id"`
	ServiceID   snowflake.ID `gorm:"not null;index" json:"service_id"`
	Brand       string       `gorm:"not null;default:''" json:"brand"`
	Color       string       `gorm:"not null;default:''" json:"color"`
	Note        string       `gorm:"not null;default:''" json:"note,omitempty"`
	BeforePhoto string       `gorm:"not null" json:"before_photo"`
	AfterPhoto  *string      `json:"after_photo,omitempty"`
	Status      Status       `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`

	Order   *Order                         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	Service *catalogdomain.CleaningService `gorm:"foreignKey:ServiceID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (OrderItem) TableName() string { return "order_items" }

// Statuses lists the item statuses in order.
func Statuses(items []OrderItem) []Status {
	out := make([]Status, 0, len(items))
	for _, item := range items {
		out = append(out, item.Status)
	}
	return out
}
