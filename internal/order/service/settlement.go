package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/shoecare/internal/observability/metrics"
	obslogger "github.com/smallbiznis/shoecare/internal/observability/logger"
	"github.com/smallbiznis/shoecare/internal/order/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Settle records payment and completes the order and every item in one
// transaction. Repeating it with the same input leaves the same state.
func (s *Service) Settle(ctx context.Context, req domain.SettleRequest) (*domain.OrderDetail, error) {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return nil, err
	}
	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if !method.Settles() {
		return nil, domain.ErrInvalidPaymentMethod
	}

	now := req.Now.UTC()
	if req.Now.IsZero() {
		now = s.clock.Now().UTC()
	}

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = s.repo.FindOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.UpdateOrderSettlement(ctx, tx, orderID, method, now); err != nil {
			return err
		}
		return s.repo.CompleteItems(ctx, tx, orderID, now)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.metrics.RecordSettlement(ctx, string(method), metrics.OutcomeFailure, 0)
		obslogger.WithContext(ctx, s.log).Error("settlement rolled back",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrSettlementFailed, err)
	}

	order.Status = domain.StatusCompleted
	order.PaymentMethod = method
	order.CompletedAt = &now

	detail, err := s.loadDetail(ctx, order)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSettlement(ctx, string(method), metrics.OutcomeSuccess, detail.Total.IntPart())
	s.audit(ctx, "order.settle", orderID, map[string]any{
		"payment_method": string(method),
		"total":          detail.Total.String(),
		"items":          len(detail.Items),
	})
	s.log.Info("order settled",
		zap.String("order_id", orderID.String()),
		zap.String("payment_method", string(method)),
	)
	return detail, nil
}
