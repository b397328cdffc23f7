package service

import (
	"context"
	"time"

	obslogger "github.com/smallbiznis/shoecare/internal/observability/logger"
	"github.com/smallbiznis/shoecare/internal/order/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateItemStatus moves one item and re-derives the order status from all
// of its items. An unpaid order cannot reach COMPLETED this way; it has to
// be settled so revenue carries a payment method.
func (s *Service) UpdateItemStatus(ctx context.Context, req domain.UpdateItemStatusRequest) (*domain.OrderDetail, error) {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return nil, err
	}
	itemID, err := parseID(req.ItemID)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	var (
		order    *domain.Order
		previous domain.Status
		resolved domain.Status
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = s.repo.FindOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if order.Status == domain.StatusCompleted {
			return domain.ErrOrderCompleted
		}

		item, err := s.repo.FindItem(ctx, tx, orderID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrItemNotFound
		}
		previous = item.Status

		if err := s.repo.UpdateItemStatus(ctx, tx, itemID, status, completedAtFor(status, now)); err != nil {
			return err
		}

		items, err := s.repo.ListItems(ctx, tx, orderID)
		if err != nil {
			return err
		}
		resolved = domain.ResolveStatus(domain.Statuses(items))
		if resolved == domain.StatusCompleted && order.PaymentMethod == domain.PaymentUnpaid {
			return domain.ErrSettlementRequired
		}
		return s.repo.UpdateOrderStatus(ctx, tx, orderID, resolved, completedAtFor(resolved, now))
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordItemStatusChange(ctx, string(previous), string(status))
	s.log.Info("item status updated",
		zap.String("order_id", orderID.String()),
		zap.String("item_id", itemID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("order_status", string(resolved)),
	)

	order.Status = resolved
	order.CompletedAt = completedAtFor(resolved, now)
	detail, err := s.loadDetail(ctx, order)
	if err != nil {
		return nil, err
	}

	if status == domain.StatusReady && resolved == domain.StatusReady && previous != domain.StatusReady {
		s.notifyReady(ctx, detail)
	}
	return detail, nil
}

// AttachAfterPhoto stores the finished-work photo for one item.
func (s *Service) AttachAfterPhoto(ctx context.Context, req domain.AttachAfterPhotoRequest) (*domain.OrderDetail, error) {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return nil, err
	}
	itemID, err := parseID(req.ItemID)
	if err != nil {
		return nil, err
	}
	if len(req.Photo) == 0 {
		return nil, domain.ErrAfterPhotoRequired
	}

	order, err := s.repo.FindOrder(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	item, err := s.repo.FindItem(ctx, s.db, orderID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}

	key, err := s.photos.Save(ctx, req.Photo)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItemAfterPhoto(ctx, s.db, itemID, key); err != nil {
		s.discardPhoto(ctx, key)
		return nil, err
	}
	if item.AfterPhoto != nil && *item.AfterPhoto != key {
		s.discardPhoto(ctx, *item.AfterPhoto)
	}

	return s.loadDetail(ctx, order)
}

// notifyReady is best-effort; a failed message never fails the update.
func (s *Service) notifyReady(ctx context.Context, detail *domain.OrderDetail) {
	if s.notifier == nil || detail.CustomerWhatsApp == "" {
		return
	}
	err := s.notifier.OrderReady(ctx, domain.ReadyNotice{
		OrderID:      detail.ID,
		CustomerName: detail.CustomerName,
		WhatsApp:     detail.CustomerWhatsApp,
		ItemCount:    len(detail.Items),
		Total:        detail.Total,
	})
	if err != nil {
		obslogger.WithContext(ctx, s.log).Warn("ready notification failed",
			zap.String("order_id", detail.ID.String()),
			zap.Error(err),
		)
	}
}

func completedAtFor(status domain.Status, now time.Time) *time.Time {
	if status != domain.StatusCompleted {
		return nil
	}
	at := now
	return &at
}
