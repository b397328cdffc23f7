package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Customer struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	Name     string       `gorm:"not null" json:"name"`
	WhatsApp string       `gorm:"column:whatsapp;not null;uniqueIndex:ux_customers_whatsapp" json:"whatsapp"`
	Address  string       `gorm:"column:address;not null;default:''" json:"address,omitempty"`
	JoinedAt time.Time    `gorm:"column:joined_at;not null" json:"joined_at"`
}

func (Customer) TableName() string { return "customers" }
