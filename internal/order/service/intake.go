package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/shoecare/internal/customer/domain"
	"github.com/smallbiznis/shoecare/internal/order/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const timeLayout = time.RFC3339Nano

// Create registers a drop-off. Photos are stored first; if the order cannot
// be written they are removed again.
func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderDetail, error) {
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, domain.ErrCustomerRequired
	}
	customer, err := s.customers.GetByID(ctx, customerdomain.GetCustomerRequest{ID: customerID})
	if err != nil {
		if errors.Is(err, customerdomain.ErrNotFound) || errors.Is(err, customerdomain.ErrInvalidID) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, domain.ErrItemsRequired
	}

	method := domain.PaymentUnpaid
	if strings.TrimSpace(req.PaymentMethod) != "" {
		method, err = domain.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			return nil, err
		}
	}

	serviceIDs := make([]snowflake.ID, 0, len(req.Items))
	for _, item := range req.Items {
		if strings.TrimSpace(item.ServiceID) == "" {
			return nil, domain.ErrServiceRequired
		}
		id, err := snowflake.ParseString(strings.TrimSpace(item.ServiceID))
		if err != nil || id == 0 {
			return nil, domain.ErrServiceNotFound
		}
		if len(item.BeforePhoto) == 0 {
			return nil, domain.ErrBeforePhotoRequired
		}
		serviceIDs = append(serviceIDs, id)
	}

	services, err := s.catalog.GetMany(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range serviceIDs {
		if _, ok := services[id]; !ok {
			return nil, domain.ErrServiceNotFound
		}
	}

	now := s.clock.Now().UTC()
	enteredAt := now
	if req.EnteredAt != nil && !req.EnteredAt.IsZero() {
		enteredAt = req.EnteredAt.UTC()
	}

	order := domain.Order{
		ID:            s.genID.Generate(),
		CustomerID:    customer.ID,
		PaymentMethod: method,
		Status:        domain.StatusPending,
		EnteredAt:     enteredAt,
	}

	stored := make([]string, 0, len(req.Items))
	items := make([]domain.OrderItem, 0, len(req.Items))
	for i, in := range req.Items {
		key, err := s.photos.Save(ctx, in.BeforePhoto)
		if err != nil {
			s.discardPhotos(ctx, stored)
			return nil, err
		}
		stored = append(stored, key)
		items = append(items, domain.OrderItem{
			ID:          s.genID.Generate(),
			OrderID:     order.ID,
			ServiceID:   serviceIDs[i],
			Brand:       strings.TrimSpace(in.Brand),
			Color:       strings.TrimSpace(in.Color),
			Note:        strings.TrimSpace(in.Note),
			BeforePhoto: key,
			Status:      domain.StatusPending,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertOrder(ctx, tx, &order); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, tx, items)
	})
	if err != nil {
		s.discardPhotos(ctx, stored)
		return nil, err
	}

	s.metrics.RecordOrderCreated(ctx, len(items))
	s.audit(ctx, "order.create", order.ID, map[string]any{
		"customer_id":    customer.ID.String(),
		"items":          len(items),
		"payment_method": string(method),
	})
	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.Int("items", len(items)),
	)

	return s.loadDetail(ctx, &order)
}

func (s *Service) discardPhotos(ctx context.Context, keys []string) {
	for _, key := range keys {
		s.discardPhoto(ctx, key)
	}
}

