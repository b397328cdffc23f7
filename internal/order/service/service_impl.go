package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/shoecare/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/shoecare/internal/catalog/domain"
	"github.com/smallbiznis/shoecare/internal/clock"
	customerdomain "github.com/smallbiznis/shoecare/internal/customer/domain"
	obslogger "github.com/smallbiznis/shoecare/internal/observability/logger"
	"github.com/smallbiznis/shoecare/internal/observability/metrics"
	"github.com/smallbiznis/shoecare/internal/order/domain"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Customers customerdomain.Service
	Catalog   catalogdomain.Service
	Photos    domain.PhotoStore
	AuditSvc  auditdomain.Service
	Notifier  domain.Notifier  `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	customers customerdomain.Service
	catalog   catalogdomain.Service
	photos    domain.PhotoStore
	auditSvc  auditdomain.Service
	notifier  domain.Notifier
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("order.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		customers: p.Customers,
		catalog:   p.Catalog,
		photos:    p.Photos,
		auditSvc:  p.AuditSvc,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
	}
}

func (s *Service) GetDetail(ctx context.Context, id string) (*domain.OrderDetail, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindOrder(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return s.loadDetail(ctx, order)
}

func (s *Service) ListActive(ctx context.Context, req domain.ListActiveRequest) (domain.ListActiveResponse, error) {
	pageSize := pagination.NormalizeSize(req.PageSize)
	orders, err := s.repo.ListActive(ctx, s.db, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListActiveResponse{}, err
	}

	orders, pageInfo := pagination.BuildCursorPageInfo(orders, pageSize, func(order *domain.Order) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        order.ID.String(),
			CreatedAt: order.EnteredAt.UTC().Format(timeLayout),
		})
		if err != nil {
			return ""
		}
		return token
	})

	orderIDs := make([]snowflake.ID, 0, len(orders))
	for _, order := range orders {
		orderIDs = append(orderIDs, order.ID)
	}
	items, err := s.repo.ListItemsByOrders(ctx, s.db, orderIDs)
	if err != nil {
		return domain.ListActiveResponse{}, err
	}
	itemsByOrder := make(map[snowflake.ID][]domain.OrderItem, len(orders))
	serviceIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
		serviceIDs = append(serviceIDs, item.ServiceID)
	}

	services, err := s.catalog.GetMany(ctx, serviceIDs)
	if err != nil {
		return domain.ListActiveResponse{}, err
	}
	durations := durationsOf(services)

	now := s.clock.Now().UTC()
	names := map[snowflake.ID]string{}
	summaries := make([]domain.OrderSummary, 0, len(orders))
	for _, order := range orders {
		orderItems := itemsByOrder[order.ID]
		current := *order
		current.Status = domain.ResolveStatus(domain.Statuses(orderItems))

		name, ok := names[order.CustomerID]
		if !ok {
			name = s.customerName(ctx, order.CustomerID)
			names[order.CustomerID] = name
		}

		summaries = append(summaries, domain.OrderSummary{
			Order:        current,
			CustomerName: name,
			ItemCount:    len(orderItems),
			Deadline:     domain.EvaluateDeadline(current, orderItems, durations, now),
		})
	}

	return domain.ListActiveResponse{PageInfo: pageInfo, Orders: summaries}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	orderID, err := parseID(id)
	if err != nil {
		return err
	}
	order, err := s.repo.FindOrder(ctx, s.db, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, orderID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteOrder(ctx, s.db, orderID); err != nil {
		return err
	}

	for _, item := range items {
		s.discardPhoto(ctx, item.BeforePhoto)
		if item.AfterPhoto != nil {
			s.discardPhoto(ctx, *item.AfterPhoto)
		}
	}

	s.audit(ctx, "order.delete", orderID, map[string]any{"items": len(items)})
	return nil
}

func (s *Service) Track(ctx context.Context, id string) (*domain.TrackView, error) {
	detail, err := s.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]domain.TrackItem, 0, len(detail.Items))
	for _, item := range detail.Items {
		items = append(items, domain.TrackItem{
			ServiceName: item.ServiceName,
			Brand:       item.Brand,
			Color:       item.Color,
			Status:      item.Status,
		})
	}

	return &domain.TrackView{
		OrderID:      detail.ID.String(),
		CustomerName: firstName(detail.CustomerName),
		Status:       detail.Status,
		EnteredAt:    detail.EnteredAt,
		CompletedAt:  detail.CompletedAt,
		Deadline:     detail.Deadline,
		Items:        items,
	}, nil
}

// loadDetail reads items, services and customer outside of any transaction.
func (s *Service) loadDetail(ctx context.Context, order *domain.Order) (*domain.OrderDetail, error) {
	items, err := s.repo.ListItems(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}

	serviceIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		serviceIDs = append(serviceIDs, item.ServiceID)
	}
	services, err := s.catalog.GetMany(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}

	detail := &domain.OrderDetail{
		Order: *order,
		Items: make([]domain.ItemDetail, 0, len(items)),
		Total: decimal.Zero,
	}
	detail.Status = domain.ResolveStatus(domain.Statuses(items))

	for _, item := range items {
		svc := services[item.ServiceID]
		detail.Items = append(detail.Items, domain.ItemDetail{
			OrderItem:   item,
			ServiceName: svc.Name,
			Price:       svc.Price,
		})
		detail.Total = detail.Total.Add(svc.Price)
	}

	customer, err := s.customers.GetByID(ctx, customerdomain.GetCustomerRequest{ID: order.CustomerID.String()})
	switch {
	case err == nil:
		detail.CustomerName = customer.Name
		detail.CustomerWhatsApp = customer.WhatsApp
	case errors.Is(err, customerdomain.ErrNotFound):
	default:
		return nil, err
	}

	detail.Deadline = domain.EvaluateDeadline(detail.Order, items, durationsOf(services), s.clock.Now().UTC())
	return detail, nil
}

func (s *Service) customerName(ctx context.Context, id snowflake.ID) string {
	customer, err := s.customers.GetByID(ctx, customerdomain.GetCustomerRequest{ID: id.String()})
	if err != nil {
		return ""
	}
	return customer.Name
}

func (s *Service) discardPhoto(ctx context.Context, key string) {
	if s.photos == nil || strings.TrimSpace(key) == "" {
		return
	}
	if err := s.photos.Delete(ctx, key); err != nil {
		obslogger.WithContext(ctx, s.log).Warn("failed to delete photo", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) audit(ctx context.Context, action string, orderID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := orderID.String()
	if err := s.auditSvc.AuditLog(ctx, action, "order", &targetID, metadata); err != nil {
		obslogger.WithContext(ctx, s.log).Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func durationsOf(services map[snowflake.ID]catalogdomain.CleaningService) map[snowflake.ID]int {
	out := make(map[snowflake.ID]int, len(services))
	for id, svc := range services {
		out[id] = svc.DurationDays
	}
	return out
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
