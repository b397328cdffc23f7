package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/shoecare/internal/customer/domain"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO customers (id, name, whatsapp, address, joined_at)
		 VALUES (?, ?, ?, ?, ?)`,
		customer.ID,
		customer.Name,
		customer.WhatsApp,
		customer.Address,
		customer.JoinedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, whatsapp, address, joined_at
		 FROM customers WHERE id = ?`,
		id,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) FindByWhatsApp(ctx context.Context, db *gorm.DB, whatsapp string) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, whatsapp, address, joined_at
		 FROM customers WHERE whatsapp = ?`,
		whatsapp,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := db.WithContext(ctx).Model(&domain.Customer{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		stmt = stmt.Where("LOWER(name) LIKE ? OR whatsapp LIKE ?", like, like)
	}
	if prefix := strings.TrimSpace(filter.WhatsAppPrefix); prefix != "" {
		stmt = stmt.Where("whatsapp LIKE ?", prefix+"%")
	}
	stmt, err := pagination.Apply(stmt, page, "joined_at")
	if err != nil {
		return nil, err
	}
	if err := stmt.Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
